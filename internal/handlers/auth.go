package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/services"
	"github.com/example/courier/internal/utils"
)

// riderDocumentCount is the number of "image" files a rider uploads at
// signup: documents, valid ID and passport, in that order.
const riderDocumentCount = 3

// AuthHandler serves signup, OTP verification, OTP resend and login for
// one account variant.
type AuthHandler struct {
	kind         models.Kind
	verification *services.VerificationService
	documents    services.DocumentStore
	log          *slog.Logger
}

// NewAuthHandler constructs an AuthHandler for kind. documents is only used
// by rider signup and may be nil for users.
func NewAuthHandler(kind models.Kind, verification *services.VerificationService, documents services.DocumentStore, log *slog.Logger) *AuthHandler {
	return &AuthHandler{kind: kind, verification: verification, documents: documents, log: log}
}

type riderSignupRequest struct {
	Name            string `json:"name" form:"name" validate:"required,max=120"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Phone           string `json:"phone" form:"phone" validate:"required,phone"`
	Password        string `json:"password" form:"password" validate:"required,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	City            string `json:"city" form:"city" validate:"required,max=120"`
	PlateNumber     string `json:"plate_number" form:"plate_number" validate:"required,max=32"`
}

// RiderSignup registers a rider from a multipart form carrying the rider's
// fields and three "image" files.
func (h *AuthHandler) RiderSignup(c *fiber.Ctx) error {
	var req riderSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return validationError("documents, valid ID and passport images are required")
	}
	images := form.File["image"]
	if len(images) < riderDocumentCount {
		return validationError("documents, valid ID and passport images are required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.verification.CheckAvailable(c.UserContext(), email, strings.TrimSpace(req.Phone), nil); err != nil {
		return err
	}

	paths := make([]string, 0, riderDocumentCount)
	for _, image := range images[:riderDocumentCount] {
		path, err := h.saveDocument(c, image)
		if err != nil {
			h.discardDocuments(c, paths)
			return fmt.Errorf("save rider document: %w", err)
		}
		paths = append(paths, path)
	}

	rider := &models.Rider{
		Name:        req.Name,
		Credentials: models.Credentials{Email: email, Phone: req.Phone},
		City:        req.City,
		PlateNumber: req.PlateNumber,
		Documents:   paths[0],
		ValidID:     paths[1],
		Passport:    paths[2],
		Role:        string(models.KindRider),
	}

	session, err := h.verification.Register(c.UserContext(), rider, req.Password)
	if err != nil {
		h.discardDocuments(c, paths)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(signupResponse("Rider created successfully", session))
}

// discardDocuments removes uploads left without an account. Failures are
// logged since the original error is what the caller needs.
func (h *AuthHandler) discardDocuments(c *fiber.Ctx, paths []string) {
	for _, path := range paths {
		if err := h.documents.Delete(c.UserContext(), path); err != nil {
			h.log.WarnContext(c.UserContext(), "failed to remove orphaned rider document", "path", path, "error", err)
		}
	}
}

func (h *AuthHandler) saveDocument(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.documents.Save(c.UserContext(), fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
}

type userSignupRequest struct {
	Name            string `json:"name" form:"name" validate:"max=120"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Phone           string `json:"phone" form:"phone" validate:"required,phone"`
	Password        string `json:"password" form:"password" validate:"required,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"omitempty,eqfield=Password"`
	Address         string `json:"address" form:"address" validate:"max=255"`
}

// UserSignup registers a user from a JSON body.
func (h *AuthHandler) UserSignup(c *fiber.Ctx) error {
	var req userSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	user := &models.User{
		Name:        req.Name,
		Credentials: models.Credentials{Email: req.Email, Phone: req.Phone},
		Address:     req.Address,
		Role:        string(models.KindUser),
	}

	session, err := h.verification.Register(c.UserContext(), user, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(signupResponse("User created successfully", session))
}

func signupResponse(message string, session *services.Session) fiber.Map {
	resp := fiber.Map{
		"success":              true,
		"message":              message,
		"token":                session.Token,
		"verified":             session.Verified,
		"otp_delivery_pending": session.OTPDeliveryPending,
	}
	if session.OTPDeliveryPending {
		resp["message"] = message + ", but the verification email could not be sent; request a new OTP"
	}
	return resp
}

// otpCode accepts the submitted OTP as a JSON string or number.
type otpCode string

func (o *otpCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = otpCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*o = otpCode(n.String())
	return nil
}

type verifyRequest struct {
	OTP otpCode `json:"otp" form:"otp"`
}

// Verify promotes the account named by the :signature token to verified
// when the submitted OTP matches.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(string(req.OTP)) == "" {
		return validationError("otp is required")
	}

	session, err := h.verification.Verify(c.UserContext(), h.kind, c.Params("signature"), string(req.OTP))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Your account have been verified successfully",
		"token":    session.Token,
		"verified": session.Verified,
	})
}

// ResendOTP issues and mails a fresh OTP for the :signature token.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	if err := h.verification.ResendOTP(c.UserContext(), h.kind, c.Params("signature")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP resent successfully, kindly check your email for OTP verification",
	})
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Login authenticates an existing account.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	session, err := h.verification.Login(c.UserContext(), h.kind, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Login successful",
		"token":    session.Token,
		"verified": session.Verified,
	})
}
