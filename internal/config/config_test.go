package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 10*time.Minute, cfg.OTPExpires)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Empty(t, cfg.S3Bucket)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("OTP_LENGTH", "8")
	t.Setenv("OTP_TTL_MINUTES", "5")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("S3_BUCKET", "rider-docs")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 8, cfg.OTPLength)
	assert.Equal(t, 5*time.Minute, cfg.OTPExpires)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpires)
	assert.Equal(t, "rider-docs", cfg.S3Bucket)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET must be set"},
		{"empty port", map[string]string{"JWT_SECRET": "s", "APP_PORT": ""}, "APP_PORT must be set"},
		{"short otp", map[string]string{"JWT_SECRET": "s", "OTP_LENGTH": "3"}, "OTP_LENGTH must be between 4 and 9, got 3"},
		{"zero ttl", map[string]string{"JWT_SECRET": "s", "OTP_TTL_MINUTES": "0"}, "OTP_TTL_MINUTES and JWT_TTL_HOURS must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestGetEnvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("OTP_LENGTH", "six")
	assert.Equal(t, 6, getEnvInt("OTP_LENGTH", 6))
}
