package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courier/internal/logging"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "999", FormatAmount(999))
	assert.Equal(t, "1,500", FormatAmount(1500))
	assert.Equal(t, "12,345,678", FormatAmount(12345678.9))
}

func TestTelegramService_NotifyBidAccepted(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42", logging.Discard()).WithBaseURL(srv.URL)
	svc.NotifyBidAccepted(context.Background(), OrderNotification{
		OrderID:     "o-1",
		RiderName:   "Ada <3",
		RiderPhone:  "555",
		OfferAmount: 2500,
	})

	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "Ada &lt;3")
	assert.Contains(t, got.Text, "2,500")
}

func TestTelegramService_Unconfigured(t *testing.T) {
	svc := NewTelegramService("", "", logging.Discard())
	assert.NoError(t, svc.SendToAdmin(context.Background(), "hello"))
}
