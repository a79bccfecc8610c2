package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/repository"
	"github.com/example/courier/internal/utils"
)

// MailSettings configures the OTP email.
type MailSettings struct {
	Subject string
}

// Session is returned to the client after register, verify and login.
type Session struct {
	Token              string
	Verified           bool
	OTPDeliveryPending bool
}

// VerificationService runs OTP issuance at signup, OTP re-issuance on demand
// and promotion of a valid OTP to a verified session.
type VerificationService struct {
	registry repository.AccountRegistry
	otp      *utils.OTPGenerator
	signer   *utils.Signer
	mailer   Mailer
	mail     MailSettings
	log      *slog.Logger
	now      func() time.Time
}

// NewVerificationService wires the flow to its collaborators.
func NewVerificationService(
	registry repository.AccountRegistry,
	otp *utils.OTPGenerator,
	signer *utils.Signer,
	mailer Mailer,
	mail MailSettings,
	log *slog.Logger,
) *VerificationService {
	return &VerificationService{
		registry: registry,
		otp:      otp,
		signer:   signer,
		mailer:   mailer,
		mail:     mail,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for OTP expiry checks.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	s.now = now
	return s
}

type credentialsInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// Register persists an unverified account, mails its OTP and returns an
// unverified session. An error means no account was stored. Variant specific fields of account are stored as
// given; its credentials are overwritten.
func (s *VerificationService) Register(ctx context.Context, account models.Account, password string) (*Session, error) {
	creds := account.Creds()
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	creds.Phone = strings.TrimSpace(creds.Phone)

	if msg := utils.ValidateStruct(credentialsInput{Email: creds.Email, Phone: creds.Phone, Password: password}); msg != "" {
		return nil, &ValidationError{Message: msg}
	}

	if err := s.CheckAvailable(ctx, creds.Email, creds.Phone, nil); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, expiry, err := s.otp.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	creds.PasswordHash = hash
	creds.OTP = &code
	creds.OTPExpiry = &expiry
	creds.Verified = false
	creds.OTPDeliveryPending = false

	if err := s.registry.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create %s: %w", account.AccountKind(), err)
	}

	log := s.log.With("kind", account.AccountKind(), "account_id", account.AccountID())

	if err := s.mailer.SendEmail(ctx, creds.Email, s.mail.Subject, OTPEmailHTML(code)); err != nil {
		log.WarnContext(ctx, "otp email failed at registration, marking for redelivery", "error", err)
		if uerr := s.registry.UpdateFields(ctx, account.AccountKind(), account.AccountID(), map[string]interface{}{
			"otp_delivery_pending": true,
		}); uerr != nil {
			log.ErrorContext(ctx, "failed to mark otp delivery pending", "error", uerr)
		}
		creds.OTPDeliveryPending = true
	}

	token, err := s.signer.Issue(claimsOf(account))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.InfoContext(ctx, "account registered")

	return &Session{Token: token, Verified: false, OTPDeliveryPending: creds.OTPDeliveryPending}, nil
}

// CheckAvailable fails with ErrDuplicateAccount when an account of any
// variant other than self already holds email or phone. Empty values are
// not checked; self may be nil.
func (s *VerificationService) CheckAvailable(ctx context.Context, email, phone string, self models.Account) error {
	for _, kind := range models.Kinds {
		if email != "" {
			if err := s.checkUnused(ctx, self, kind, "email", email, s.registry.FindByEmail); err != nil {
				return err
			}
		}
		if phone != "" {
			if err := s.checkUnused(ctx, self, kind, "phone", phone, s.registry.FindByPhone); err != nil {
				return err
			}
		}
	}
	return nil
}

type findFunc func(ctx context.Context, kind models.Kind, value string) (models.Account, error)

func (s *VerificationService) checkUnused(ctx context.Context, self models.Account, kind models.Kind, field, value string, find findFunc) error {
	found, err := find(ctx, kind, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup %s by %s: %w", kind, field, err)
	}
	if self != nil && self.AccountKind() == kind && self.AccountID() == found.AccountID() {
		return nil
	}
	return ErrDuplicateAccount
}

// Verify checks otp against the account named by token and, on success,
// marks the account verified, consumes the OTP and returns a verified
// session.
func (s *VerificationService) Verify(ctx context.Context, kind models.Kind, token, otp string) (*Session, error) {
	account, err := s.accountFromToken(ctx, kind, token)
	if err != nil {
		return nil, err
	}

	creds := account.Creds()
	if !utils.OTPMatches(creds.OTP, creds.OTPExpiry, strings.TrimSpace(otp), s.now()) {
		return nil, ErrInvalidOTP
	}

	// A concurrent verify or resend may have changed the code since it was
	// read; only the caller whose code is still stored wins.
	if err := s.registry.ConsumeOTP(ctx, kind, account.AccountID(), *creds.OTP); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("mark %s verified: %w", kind, err)
	}
	creds.Verified = true
	creds.OTP = nil
	creds.OTPExpiry = nil

	signed, err := s.signer.Issue(claimsOf(account))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.InfoContext(ctx, "account verified", "kind", kind, "account_id", account.AccountID())

	return &Session{Token: signed, Verified: true}, nil
}

// ResendOTP replaces the stored OTP of the account named by token and
// mails the new code. The previous code stops working immediately.
func (s *VerificationService) ResendOTP(ctx context.Context, kind models.Kind, token string) error {
	account, err := s.accountFromToken(ctx, kind, token)
	if err != nil {
		return err
	}

	code, expiry, err := s.otp.Generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.registry.UpdateFields(ctx, kind, account.AccountID(), map[string]interface{}{
		"otp":        code,
		"otp_expiry": expiry,
	}); err != nil {
		return fmt.Errorf("store %s otp: %w", kind, err)
	}

	log := s.log.With("kind", kind, "account_id", account.AccountID())

	if err := s.mailer.SendEmail(ctx, account.Creds().Email, s.mail.Subject, OTPEmailHTML(code)); err != nil {
		log.WarnContext(ctx, "otp email failed on resend", "error", err)
		if uerr := s.registry.UpdateFields(ctx, kind, account.AccountID(), map[string]interface{}{
			"otp_delivery_pending": true,
		}); uerr != nil {
			log.ErrorContext(ctx, "failed to mark otp delivery pending", "error", uerr)
		}
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	if account.Creds().OTPDeliveryPending {
		if err := s.registry.UpdateFields(ctx, kind, account.AccountID(), map[string]interface{}{
			"otp_delivery_pending": false,
		}); err != nil {
			return fmt.Errorf("clear otp delivery pending: %w", err)
		}
	}

	log.InfoContext(ctx, "otp resent")
	return nil
}

// Login checks email and password and returns a session reflecting the
// stored verified flag.
func (s *VerificationService) Login(ctx context.Context, kind models.Kind, email, password string) (*Session, error) {
	account, err := s.registry.FindByEmail(ctx, kind, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup %s by email: %w", kind, err)
	}

	if !utils.CheckPassword(account.Creds().PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.signer.Issue(claimsOf(account))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Session{
		Token:              token,
		Verified:           account.Creds().Verified,
		OTPDeliveryPending: account.Creds().OTPDeliveryPending,
	}, nil
}

// Authenticate resolves a bearer token to the live account of kind.
func (s *VerificationService) Authenticate(ctx context.Context, kind models.Kind, token string) (models.Account, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.registry.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup %s by id: %w", kind, err)
	}
	return account, nil
}

func (s *VerificationService) accountFromToken(ctx context.Context, kind models.Kind, token string) (models.Account, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.registry.FindByEmail(ctx, kind, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup %s by email: %w", kind, err)
	}
	return account, nil
}

func claimsOf(account models.Account) utils.Claims {
	return utils.Claims{
		ID:       account.AccountID().String(),
		Email:    account.Creds().Email,
		Verified: account.Creds().Verified,
	}
}
