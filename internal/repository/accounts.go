package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/courier/internal/models"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account already exists")
)

// AccountRegistry stores rider and user accounts. Every method is a single
// row operation.
type AccountRegistry interface {
	FindByID(ctx context.Context, kind models.Kind, id uuid.UUID) (models.Account, error)
	FindByEmail(ctx context.Context, kind models.Kind, email string) (models.Account, error)
	FindByPhone(ctx context.Context, kind models.Kind, phone string) (models.Account, error)
	Create(ctx context.Context, account models.Account) error
	UpdateFields(ctx context.Context, kind models.Kind, id uuid.UUID, patch map[string]interface{}) error
	ConsumeOTP(ctx context.Context, kind models.Kind, id uuid.UUID, otp string) error
}

// GormAccountRegistry is the AccountRegistry backed by GORM.
type GormAccountRegistry struct {
	db *gorm.DB
}

// NewAccountRegistry constructs a GormAccountRegistry.
func NewAccountRegistry(db *gorm.DB) *GormAccountRegistry {
	return &GormAccountRegistry{db: db}
}

func (r *GormAccountRegistry) FindByID(ctx context.Context, kind models.Kind, id uuid.UUID) (models.Account, error) {
	return r.findBy(ctx, kind, "id = ?", id)
}

func (r *GormAccountRegistry) FindByEmail(ctx context.Context, kind models.Kind, email string) (models.Account, error) {
	return r.findBy(ctx, kind, "email = ?", email)
}

func (r *GormAccountRegistry) FindByPhone(ctx context.Context, kind models.Kind, phone string) (models.Account, error) {
	return r.findBy(ctx, kind, "phone = ?", phone)
}

func (r *GormAccountRegistry) findBy(ctx context.Context, kind models.Kind, query string, arg interface{}) (models.Account, error) {
	account := models.NewAccount(kind)
	if err := r.db.WithContext(ctx).Where(query, arg).First(account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// Create inserts the account. A unique index violation on email or phone is
// reported as ErrDuplicate.
func (r *GormAccountRegistry) Create(ctx context.Context, account models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateFields applies patch to the account row. Nil values clear columns.
func (r *GormAccountRegistry) UpdateFields(ctx context.Context, kind models.Kind, id uuid.UUID, patch map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(models.NewAccount(kind)).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeOTP marks the account verified and clears its OTP, provided the
// stored code is still otp. It returns ErrNotFound when the row is gone or
// the code was already consumed or replaced.
func (r *GormAccountRegistry) ConsumeOTP(ctx context.Context, kind models.Kind, id uuid.UUID, otp string) error {
	res := r.db.WithContext(ctx).Model(models.NewAccount(kind)).
		Where("id = ? AND otp = ?", id, otp).
		Updates(map[string]interface{}{
			"verified":   true,
			"otp":        nil,
			"otp_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Dialects without error translation.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
