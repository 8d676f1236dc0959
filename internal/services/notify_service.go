package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/bozor/internal/models"
)

// NotifyService pushes order notifications to the admin Telegram chat.
// Everything here is best-effort: a failed notification is logged and
// never fails the order that triggered it.
type NotifyService struct {
	botToken    string
	adminChatID string
}

// NewNotifyService creates a NotifyService.
func NewNotifyService(botToken, adminChatID string) *NotifyService {
	return &NotifyService{botToken: botToken, adminChatID: adminChatID}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *NotifyService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Notify] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Notify] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Notify] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyNewOrder tells the admin chat about a freshly placed order.
func (s *NotifyService) NotifyNewOrder(order *models.Order) {
	if s.adminChatID == "" {
		return
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %.2f = %.2f\n",
			i+1, item.ProductName, item.Quantity, item.UnitPrice, item.ItemTotal))
	}

	message := fmt.Sprintf(`<b>New order %s</b>
%s
Subtotal: %.2f
Discount: %.2f
Delivery: %.2f
<b>Total: %.2f</b>
Status: %s`,
		order.OrderNumber,
		itemsList.String(),
		order.Subtotal,
		order.CouponAmount,
		order.DeliveryCharge,
		order.TotalAmount,
		order.Status,
	)

	if err := s.SendMessage(s.adminChatID, strings.TrimSpace(message)); err != nil {
		log.Printf("[Notify] order notification failed for %s: %v", order.OrderNumber, err)
	}
}
