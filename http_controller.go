package userbase

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// LoginRequest payload
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UsernameOrEmail, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignupRequest payload
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
	)
}

// UserRequest is the admin creation payload; unlike signup it may carry an
// explicit role set.
type UserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// Validate will run validation rules
func (r UserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Roles, validation.Each(validation.Required, validation.Length(1, 50))),
	)
}

// UpdateUserRequest payload. The password is deliberately absent: hashes only
// change through the dedicated password endpoint.
type UpdateUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
	Enabled  bool     `json:"enabled"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Roles, validation.Each(validation.Required, validation.Length(1, 50))),
	)
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// TokenResponse is the login payload: the bearer token and its scheme
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

// AuthController serves the public login and signup endpoints
type AuthController struct {
	Logger   Logger
	Auther   Authenticator
	Register *RegisterUserHandler
}

// NewAuthController wires the controller
func NewAuthController(auther Authenticator, register *RegisterUserHandler) *AuthController {
	return &AuthController{
		Logger:   defLogger{},
		Auther:   auther,
		Register: register,
	}
}

// Login handles POST /api/auth/login
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return badBodyError(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := a.Auther.Login(c.UserContext(), payload.UsernameOrEmail, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(SuccessResponse("Login successful", TokenResponse{
		Token:     token,
		TokenType: defaultAuthScheme,
	}))
}

// Signup handles POST /api/auth/signup. New accounts always get the base role.
func (a *AuthController) Signup(c *fiber.Ctx) error {
	payload := new(SignupRequest)
	if err := c.BodyParser(payload); err != nil {
		return badBodyError(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	created, err := a.Register.Execute(c.UserContext(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/api/users/%s", created.Username))
	return c.Status(fiber.StatusCreated).
		JSON(SuccessResponse("User registered successfully", created.Response()))
}

// UserController serves the administrator-gated user management endpoints
type UserController struct {
	Logger         Logger
	Users          Users
	Register       *RegisterUserHandler
	ChangePassword *ChangePasswordHandler
}

// NewUserController wires the controller
func NewUserController(users Users, register *RegisterUserHandler, changePassword *ChangePasswordHandler) *UserController {
	return &UserController{
		Logger:         defLogger{},
		Users:          users,
		Register:       register,
		ChangePassword: changePassword,
	}
}

// Create handles POST /api/users
func (u *UserController) Create(c *fiber.Ctx) error {
	payload := new(UserRequest)
	if err := c.BodyParser(payload); err != nil {
		return badBodyError(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	created, err := u.Register.Execute(c.UserContext(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
		Roles:    payload.Roles,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/api/users/%d", created.ID))
	return c.Status(fiber.StatusCreated).
		JSON(SuccessResponse("User created successfully", created.Response()))
}

// GetByID handles GET /api/users/:id
func (u *UserController) GetByID(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	user, err := u.Users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(SuccessResponse("User retrieved successfully", user.Response()))
}

// GetByUsername handles GET /api/users/username/:username
func (u *UserController) GetByUsername(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := u.Users.GetByUsername(c.UserContext(), username)
	if err != nil {
		return err
	}

	return c.JSON(SuccessResponse("User retrieved successfully", user.Response()))
}

// List handles GET /api/users. No pagination: the store is read in full.
func (u *UserController) List(c *fiber.Ctx) error {
	records, err := u.Users.List(c.UserContext())
	if err != nil {
		return err
	}

	responses := make([]*UserResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, record.Response())
	}

	return c.JSON(SuccessResponse("Users retrieved successfully", responses))
}

// Update handles PUT /api/users/:id. A non-empty roles list fully replaces
// the prior set; an empty or omitted list leaves it unchanged.
func (u *UserController) Update(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return badBodyError(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	ctx := c.UserContext()

	user, err := u.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if payload.Username != user.Username {
		if taken, err := u.Users.ExistsByUsername(ctx, payload.Username, id); err != nil {
			return err
		} else if taken {
			return NewConflictError("Username is already taken!", "username")
		}
	}

	if payload.Email != user.Email {
		if taken, err := u.Users.ExistsByEmail(ctx, payload.Email, id); err != nil {
			return err
		} else if taken {
			return NewConflictError("Email is already in use!", "email")
		}
	}

	user.Username = payload.Username
	user.Email = payload.Email
	user.FullName = payload.FullName
	user.Enabled = payload.Enabled
	if len(payload.Roles) > 0 {
		user.Roles = NormalizeRoles(payload.Roles)
	}

	updated, err := u.Users.Update(ctx, user)
	if err != nil {
		return err
	}

	return c.JSON(SuccessResponse("User updated successfully", updated.Response()))
}

// UpdatePasswordRoute handles PUT /api/users/:id/password. Self-service
// changes must present the current password; administrators resetting another
// account skip that check.
func (u *UserController) UpdatePasswordRoute(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	payload := new(ChangePasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return badBodyError(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	principal, _ := PrincipalFromContext(c.UserContext())
	requireCurrent := principal == nil || principal.ID == id || !principal.HasRole(RoleAdmin)

	if err := u.ChangePassword.Execute(c.UserContext(), ChangePasswordMessage{
		UserID:          id,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		RequireCurrent:  requireCurrent,
	}); err != nil {
		return err
	}

	return c.JSON(SuccessResponse("Password changed successfully", nil))
}

// Delete handles DELETE /api/users/:id
func (u *UserController) Delete(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := u.Users.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.JSON(SuccessResponse("User deleted successfully", nil))
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerrors.New("Invalid user id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode("INVALID_USER_ID")
	}
	return id, nil
}

func badBodyError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Malformed request body").
		WithCode(goerrors.CodeBadRequest).
		WithTextCode("MALFORMED_BODY")
}
