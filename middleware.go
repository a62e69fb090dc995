package userbase

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// DefaultContextKey is the fiber locals key the authenticated principal is
// stored under.
const DefaultContextKey = "principal"

const defaultAuthScheme = "Bearer"

// Guard authenticates incoming requests and evaluates per-route policies.
// Tokens are identity proof only: the role set is re-resolved from the
// credential store on every request, so role changes take effect without
// re-login.
type Guard struct {
	verifier   TokenVerifier
	users      Users
	logger     Logger
	contextKey string
	authScheme string
}

// NewGuard returns a Guard over the given verifier and credential store
func NewGuard(verifier TokenVerifier, users Users) *Guard {
	return &Guard{
		verifier:   verifier,
		users:      users,
		logger:     defLogger{},
		contextKey: DefaultContextKey,
		authScheme: defaultAuthScheme,
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithContextKey overrides the locals key used to stash the principal
func (g *Guard) WithContextKey(key string) *Guard {
	if key != "" {
		g.contextKey = key
	}
	return g
}

// Authenticate extracts and validates the bearer token, reloads the user from
// the store, and attaches the resulting Principal to the request context.
func (g *Guard) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := g.extractToken(c)
		if err != nil {
			return err
		}

		claims, err := g.verifier.Validate(raw)
		if err != nil {
			g.logger.Debug("Authenticate token rejected", "error", err)
			return err
		}

		user, err := g.users.GetByUsername(c.UserContext(), claims.Subject)
		if err != nil {
			if errors.IsNotFound(err) {
				// valid signature but the subject no longer exists
				g.logger.Warn("Authenticate subject no longer resolves", "subject", claims.Subject)
				return ErrUnauthenticated
			}
			return err
		}

		if !user.CanAuthenticate() {
			g.logger.Warn("Authenticate blocked due to account status", "user_id", user.ID)
			return ErrUnauthenticated
		}

		principal := user.Principal()
		c.Locals(g.contextKey, principal)
		c.SetUserContext(WithPrincipal(c.UserContext(), principal))

		return c.Next()
	}
}

// Require evaluates the policy against the request's principal. Requests with
// no principal fail Unauthenticated; requests whose principal fails the policy
// fail Forbidden.
func (g *Guard) Require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := g.PrincipalFromRequest(c)
		if principal == nil {
			return ErrUnauthenticated
		}

		if !policy.Allow(principal, c.AllParams()) {
			g.logger.Debug("Require policy rejected",
				"user_id", principal.ID,
				"path", c.Path(),
			)
			return ErrForbidden
		}

		return c.Next()
	}
}

// PrincipalFromRequest returns the principal attached by Authenticate, if any
func (g *Guard) PrincipalFromRequest(c *fiber.Ctx) *Principal {
	principal, ok := c.Locals(g.contextKey).(*Principal)
	if !ok {
		return nil
	}
	return principal
}

func (g *Guard) extractToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrUnauthenticated
	}

	scheme := g.authScheme
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrUnauthenticated
	}

	return strings.TrimSpace(header[len(scheme):]), nil
}
