package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/example/courier/internal/services"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", validationError("email is required"), fiber.StatusBadRequest, KindValidationFailed},
		{"duplicate", services.ErrDuplicateAccount, fiber.StatusBadRequest, KindDuplicateAccount},
		{"invalid token", services.ErrInvalidToken, fiber.StatusBadRequest, KindInvalidOtpOrToken},
		{"account not found", services.ErrAccountNotFound, fiber.StatusBadRequest, KindInvalidOtpOrToken},
		{"invalid otp", services.ErrInvalidOTP, fiber.StatusBadRequest, KindInvalidOtpOrToken},
		{"dispatch", fmt.Errorf("%w: provider down", services.ErrDispatchFailed), fiber.StatusBadGateway, KindDispatchFailed},
		{"credentials", services.ErrInvalidCredentials, fiber.StatusUnauthorized, KindInvalidCredentials},
		{"fiber unauthorized", fiber.NewError(fiber.StatusUnauthorized, "no"), fiber.StatusUnauthorized, KindUnauthorized},
		{"fiber forbidden", fiber.NewError(fiber.StatusForbidden, "no"), fiber.StatusForbidden, KindForbidden},
		{"fiber conflict", fiber.NewError(fiber.StatusConflict, "no"), fiber.StatusConflict, KindConflict},
		{"fiber bad gateway", fiber.NewError(fiber.StatusBadGateway, "mail down"), fiber.StatusBadGateway, KindDispatchFailed},
		{"fiber internal", fiber.NewError(fiber.StatusServiceUnavailable, "db host 10.0.0.1"), fiber.StatusServiceUnavailable, KindInternal},
		{"unknown", errors.New("pq: connection refused"), fiber.StatusInternalServerError, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestClassify_HidesInternalDetail(t *testing.T) {
	_, resp := classify(errors.New("pq: password authentication failed for user courier"))
	assert.Equal(t, "internal server error", resp.Message)

	_, resp = classify(validationError("phone must be a valid phone number"))
	assert.Equal(t, "phone must be a valid phone number", resp.Message)
}

func TestOTPCode_UnmarshalJSON(t *testing.T) {
	var req verifyRequest
	assert.NoError(t, req.OTP.UnmarshalJSON([]byte(`"012345"`)))
	assert.Equal(t, otpCode("012345"), req.OTP)

	assert.NoError(t, req.OTP.UnmarshalJSON([]byte(`482913`)))
	assert.Equal(t, otpCode("482913"), req.OTP)

	assert.Error(t, req.OTP.UnmarshalJSON([]byte(`{}`)))
}
