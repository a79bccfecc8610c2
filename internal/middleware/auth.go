package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/services"
)

const accountContextKey = "currentAccount"

// Authenticator resolves a bearer token to a live account.
type Authenticator interface {
	Authenticate(ctx context.Context, kind models.Kind, token string) (models.Account, error)
}

// RequireAccount validates the bearer token and loads the caller's account
// of the given kind into context.
func RequireAccount(auth Authenticator, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		account, err := auth.Authenticate(c.UserContext(), kind, strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrAccountNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "you are not authorised to access this resource")
			}
			return err
		}

		c.Locals(accountContextKey, account)
		return c.Next()
	}
}

// RequireVerified rejects callers whose account has not completed OTP
// verification. It must run after RequireAccount.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := GetCurrentAccount(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if !account.Creds().Verified {
			return fiber.NewError(fiber.StatusForbidden, "account is not verified")
		}
		return c.Next()
	}
}

// GetCurrentAccount extracts the authenticated account from context.
func GetCurrentAccount(c *fiber.Ctx) (models.Account, bool) {
	account, ok := c.Locals(accountContextKey).(models.Account)
	return account, ok && account != nil
}
