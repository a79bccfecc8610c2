package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailer_SendEmail(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	mailer := NewResendMailer("key-1", "Courier <no-reply@x.com>").WithBaseURL(srv.URL)
	err := mailer.SendEmail(context.Background(), "a@x.com", "Your code", OTPEmailHTML("123456"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-1", auth)
	assert.Equal(t, []string{"a@x.com"}, got.To)
	assert.Equal(t, "Your code", got.Subject)
	assert.Contains(t, got.HTML, "123456")
}

func TestResendMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "domain not verified", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewResendMailer("key", "from@x.com").WithBaseURL(srv.URL).
		SendEmail(context.Background(), "a@x.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "domain not verified")
}
