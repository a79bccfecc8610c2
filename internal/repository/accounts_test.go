package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/testutil"
)

func newRider(email, phone string) *models.Rider {
	code := "123456"
	expiry := time.Now().Add(10 * time.Minute)
	return &models.Rider{
		Name: "Ada",
		Credentials: models.Credentials{
			Email:        email,
			Phone:        phone,
			PasswordHash: "hash",
			OTP:          &code,
			OTPExpiry:    &expiry,
		},
		City: "Lagos",
	}
}

func TestGormAccountRegistry_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	registry := NewAccountRegistry(testutil.NewDB(t))

	rider := newRider("a@x.com", "555")
	require.NoError(t, registry.Create(ctx, rider))
	require.NotEqual(t, uuid.Nil, rider.ID)

	byEmail, err := registry.FindByEmail(ctx, models.KindRider, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, rider.ID, byEmail.AccountID())
	assert.Equal(t, models.KindRider, byEmail.AccountKind())
	assert.False(t, byEmail.Creds().Verified)
	require.NotNil(t, byEmail.Creds().OTP)
	assert.Equal(t, "123456", *byEmail.Creds().OTP)
	assert.Equal(t, "Lagos", byEmail.(*models.Rider).City)

	byPhone, err := registry.FindByPhone(ctx, models.KindRider, "555")
	require.NoError(t, err)
	assert.Equal(t, rider.ID, byPhone.AccountID())

	byID, err := registry.FindByID(ctx, models.KindRider, rider.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Creds().Email)
}

func TestGormAccountRegistry_VariantsAreSeparate(t *testing.T) {
	ctx := context.Background()
	registry := NewAccountRegistry(testutil.NewDB(t))

	require.NoError(t, registry.Create(ctx, newRider("a@x.com", "555")))

	_, err := registry.FindByEmail(ctx, models.KindUser, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormAccountRegistry_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	registry := NewAccountRegistry(testutil.NewDB(t))

	require.NoError(t, registry.Create(ctx, newRider("a@x.com", "555")))
	err := registry.Create(ctx, newRider("a@x.com", "556"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormAccountRegistry_UpdateFields(t *testing.T) {
	ctx := context.Background()
	registry := NewAccountRegistry(testutil.NewDB(t))

	rider := newRider("a@x.com", "555")
	require.NoError(t, registry.Create(ctx, rider))

	err := registry.UpdateFields(ctx, models.KindRider, rider.ID, map[string]interface{}{
		"verified":   true,
		"otp":        nil,
		"otp_expiry": nil,
	})
	require.NoError(t, err)

	got, err := registry.FindByID(ctx, models.KindRider, rider.ID)
	require.NoError(t, err)
	assert.True(t, got.Creds().Verified)
	assert.Nil(t, got.Creds().OTP)
	assert.Nil(t, got.Creds().OTPExpiry)
}

func TestGormAccountRegistry_UpdateFieldsMissing(t *testing.T) {
	registry := NewAccountRegistry(testutil.NewDB(t))

	err := registry.UpdateFields(context.Background(), models.KindUser, uuid.New(), map[string]interface{}{"verified": true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormAccountRegistry_ConsumeOTP(t *testing.T) {
	ctx := context.Background()
	registry := NewAccountRegistry(testutil.NewDB(t))

	rider := newRider("a@x.com", "555")
	require.NoError(t, registry.Create(ctx, rider))

	assert.ErrorIs(t, registry.ConsumeOTP(ctx, models.KindRider, rider.ID, "654321"), ErrNotFound, "stale code")

	require.NoError(t, registry.ConsumeOTP(ctx, models.KindRider, rider.ID, "123456"))

	stored, err := registry.FindByID(ctx, models.KindRider, rider.ID)
	require.NoError(t, err)
	assert.True(t, stored.Creds().Verified)
	assert.Nil(t, stored.Creds().OTP)
	assert.Nil(t, stored.Creds().OTPExpiry)

	assert.ErrorIs(t, registry.ConsumeOTP(ctx, models.KindRider, rider.ID, "123456"), ErrNotFound, "already consumed")
}
