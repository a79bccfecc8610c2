package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/services"
	"github.com/example/courier/internal/utils"
)

const resetTokenTTL = 10 * time.Minute

// forgotPasswordMessage is returned whether or not the email is known.
const forgotPasswordMessage = "if an account exists for this email, a reset link has been sent"

// PasswordResetHandler manages forgot-password endpoints for users.
type PasswordResetHandler struct {
	db            *gorm.DB
	mailer        services.Mailer
	publicBaseURL string
	log           *slog.Logger
	now           func() time.Time
}

// NewPasswordResetHandler constructs a PasswordResetHandler. Reset links are
// built on publicBaseURL.
func NewPasswordResetHandler(db *gorm.DB, mailer services.Mailer, publicBaseURL string, log *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		db:            db,
		mailer:        mailer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
		now:           time.Now,
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword mails a single-use reset link to a known user.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.UserContext()

	var user models.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true, "message": forgotPasswordMessage})
		}
		return err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return err
	}
	resetToken := hex.EncodeToString(tokenBytes)
	now := h.now()

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Expire any previous unused reset tokens for this email.
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("email = ? AND used_at IS NULL AND expires_at > ?", email, now).
			Update("expires_at", now).Error; err != nil {
			return err
		}

		return tx.Create(&models.PasswordResetToken{
			Email:     email,
			Token:     resetToken,
			ExpiresAt: now.Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		return err
	}

	link := h.publicBaseURL + "/api/users/reset-password/" + resetToken
	if err := h.mailer.SendEmail(ctx, email, "Reset your password", services.PasswordResetEmailHTML(link)); err != nil {
		h.log.WarnContext(ctx, "password reset email failed", "user_id", user.ID, "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "could not send reset email")
	}

	return c.JSON(fiber.Map{"success": true, "message": forgotPasswordMessage})
}

// activeToken loads the :token reset record if it is unused and unexpired.
func (h *PasswordResetHandler) activeToken(c *fiber.Ctx, tx *gorm.DB) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := tx.Where("token = ?", c.Params("token")).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid or expired reset link")
		}
		return nil, err
	}

	if record.UsedAt != nil || record.ExpiresAt.Before(h.now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid or expired reset link")
	}

	return &record, nil
}

// ResetPasswordGet reports whether the reset link is still usable.
func (h *PasswordResetHandler) ResetPasswordGet(c *fiber.Ctx) error {
	record, err := h.activeToken(c, h.db.WithContext(c.UserContext()))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"valid":      true,
		"email":      record.Email,
		"expires_at": record.ExpiresAt,
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ResetPasswordPost sets a new password and consumes the reset link.
func (h *PasswordResetHandler) ResetPasswordPost(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		record, err := h.activeToken(c, tx)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("email = ?", record.Email).
			Update("password_hash", hash).Error; err != nil {
			return err
		}

		return tx.Model(record).Update("used_at", h.now()).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully",
	})
}
