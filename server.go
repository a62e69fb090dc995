package userbase

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
)

// Server wires the credential store, authenticator, guard, and controllers
// into a fiber application.
type Server struct {
	app    *fiber.App
	cfg    *Config
	logger Logger
	users  Users
	guard  *Guard
}

// NewServer builds the full request path over the given database handle
func NewServer(cfg *Config, db *bun.DB, logger Logger) *Server {
	if logger == nil {
		logger = defLogger{}
	}

	users := NewUsersRepository(db)
	tokens := NewTokenService([]byte(cfg.SigningKey), cfg.TokenExpiration, cfg.Issuer, logger)
	auther := NewAuthenticator(users, tokens).WithLogger(logger)
	guard := NewGuard(tokens, users).WithLogger(logger)

	hasher := NewPasswordHasher()
	register := NewRegisterUserHandler(users, hasher)
	changePassword := NewChangePasswordHandler(users, hasher)

	app := fiber.New(fiber.Config{
		AppName:               "userbase",
		ErrorHandler:          NewErrorHandler(logger),
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		cfg:    cfg,
		logger: logger,
		users:  users,
		guard:  guard,
	}

	s.registerRoutes(
		NewAuthController(auther, register),
		NewUserController(users, register, changePassword),
	)

	return s
}

func (s *Server) registerRoutes(authCtrl *AuthController, userCtrl *UserController) {
	auth := s.app.Group("/api/auth")
	auth.Post("/login", authCtrl.Login)
	auth.Post("/signup", authCtrl.Signup)

	users := s.app.Group("/api/users", s.guard.Authenticate())
	users.Post("/", s.guard.Require(RequireRole(RoleAdmin)), userCtrl.Create)
	users.Get("/", s.guard.Require(RequireRole(RoleAdmin)), userCtrl.List)
	users.Get("/username/:username", s.guard.Require(AdminOrSelfUsername("username")), userCtrl.GetByUsername)
	users.Get("/:id", s.guard.Require(AdminOrSelfID("id")), userCtrl.GetByID)
	users.Put("/:id/password", s.guard.Require(AdminOrSelfID("id")), userCtrl.UpdatePasswordRoute)
	users.Put("/:id", s.guard.Require(AdminOrSelfID("id")), userCtrl.Update)
	users.Delete("/:id", s.guard.Require(RequireRole(RoleAdmin)), userCtrl.Delete)
}

// App exposes the underlying fiber application, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Users exposes the credential store, mainly for seeding
func (s *Server) Users() Users {
	return s.users
}

// Listen starts serving on the configured address and blocks
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.HTTPAddr)
	return s.app.Listen(s.cfg.HTTPAddr)
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// EnsureBootstrapAdmin creates the configured admin account when the store is
// empty. A populated store is left untouched.
func EnsureBootstrapAdmin(ctx context.Context, users Users, cfg *Config, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if cfg.Bootstrap.Username == "" || cfg.Bootstrap.Password == "" {
		return nil
	}

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	handler := NewRegisterUserHandler(users, nil)
	created, err := handler.Execute(ctx, RegisterUserMessage{
		Username: cfg.Bootstrap.Username,
		Email:    cfg.Bootstrap.Email,
		Password: cfg.Bootstrap.Password,
		FullName: "Administrator",
		Roles:    []string{RoleAdmin, RoleUser},
	})
	if err != nil {
		return err
	}

	logger.Info("bootstrap admin created", "username", created.Username, "id", created.ID)
	return nil
}
