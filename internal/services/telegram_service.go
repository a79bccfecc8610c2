package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramService posts marketplace events to an admin chat. With no bot
// token or chat configured every call is a no-op.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         *slog.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, log *slog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramBaseURL,
		client:      &http.Client{Timeout: 5 * time.Second},
		log:         log,
	}
}

// WithBaseURL points the service at a different Bot API host.
func (s *TelegramService) WithBaseURL(baseURL string) *TelegramService {
	s.baseURL = baseURL
	return s
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends an HTML formatted message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.botToken == "" || s.adminChatID == "" {
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// OrderNotification is the order data shown in admin messages.
type OrderNotification struct {
	OrderID         string
	UserName        string
	RiderName       string
	RiderPhone      string
	PickupLocation  string
	DropOffLocation string
	OfferAmount     float64
}

// FormatAmount renders amount with thousand separators.
func FormatAmount(amount float64) string {
	str := fmt.Sprintf("%d", int64(amount))

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// NotifyNewOrder reports a newly placed order.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) {
	message := fmt.Sprintf(`<b>New order</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Pickup:</b> %s
<b>Drop-off:</b> %s
<b>Offer:</b> %s`,
		html.EscapeString(order.OrderID),
		html.EscapeString(order.UserName),
		html.EscapeString(order.PickupLocation),
		html.EscapeString(order.DropOffLocation),
		FormatAmount(order.OfferAmount),
	)
	s.send(ctx, "new order", message)
}

// NotifyBidAccepted reports that a rider accepted an order.
func (s *TelegramService) NotifyBidAccepted(ctx context.Context, order OrderNotification) {
	message := fmt.Sprintf(`<b>Bid accepted</b>
<b>Order:</b> %s
<b>Rider:</b> %s (%s)
<b>Pickup:</b> %s
<b>Drop-off:</b> %s
<b>Offer:</b> %s`,
		html.EscapeString(order.OrderID),
		html.EscapeString(order.RiderName),
		html.EscapeString(order.RiderPhone),
		html.EscapeString(order.PickupLocation),
		html.EscapeString(order.DropOffLocation),
		FormatAmount(order.OfferAmount),
	)
	s.send(ctx, "bid accepted", message)
}

// send logs instead of failing; admin notifications never fail a request.
func (s *TelegramService) send(ctx context.Context, event, message string) {
	if err := s.SendToAdmin(ctx, message); err != nil {
		s.log.WarnContext(ctx, "telegram notification failed", "event", event, "error", err)
	}
}
