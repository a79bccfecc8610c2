package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/services"
)

type stubAuth struct {
	accounts map[string]models.Account
}

func (s stubAuth) Authenticate(_ context.Context, kind models.Kind, token string) (models.Account, error) {
	account, ok := s.accounts[token]
	if !ok || account.AccountKind() != kind {
		return nil, services.ErrInvalidToken
	}
	return account, nil
}

func newApp(auth Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/rider", RequireAccount(auth, models.KindRider), func(c *fiber.Ctx) error {
		account, ok := GetCurrentAccount(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(account.Creds().Email)
	})
	app.Get("/verified", RequireAccount(auth, models.KindRider), RequireVerified(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRequireAccount(t *testing.T) {
	rider := &models.Rider{Credentials: models.Credentials{Email: "a@x.com"}}
	rider.ID = uuid.New()
	user := &models.User{Credentials: models.Credentials{Email: "b@x.com"}}
	app := newApp(stubAuth{accounts: map[string]models.Account{"rider-token": rider, "user-token": user}})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic rider-token", fiber.StatusUnauthorized},
		{"unknown token", "Bearer nope", fiber.StatusUnauthorized},
		{"other variant", "Bearer user-token", fiber.StatusUnauthorized},
		{"rider", "Bearer rider-token", fiber.StatusOK},
		{"lowercase scheme", "bearer rider-token", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/rider", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireVerified(t *testing.T) {
	unverified := &models.Rider{Credentials: models.Credentials{Email: "a@x.com"}}
	verified := &models.Rider{Credentials: models.Credentials{Email: "b@x.com", Verified: true}}
	app := newApp(stubAuth{accounts: map[string]models.Account{"u": unverified, "v": verified}})

	req := httptest.NewRequest("GET", "/verified", nil)
	req.Header.Set("Authorization", "Bearer u")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/verified", nil)
	req.Header.Set("Authorization", "Bearer v")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
