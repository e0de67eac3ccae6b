// Package notify реализует отправку уведомлений об изменении статуса заказа.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/smorozov/shopcore/internal/model"
)

// Параметры исходящего webhook-запроса.
const (
	webhookTimeout = 5 * time.Second
	webhookRetries = 2
)

var statusTitles = map[model.OrderStatus]string{
	model.OrderStatusApproved:  "Your order has been approved",
	model.OrderStatusRejected:  "Your order has been rejected",
	model.OrderStatusConfirmed: "Your payment has been confirmed",
	model.OrderStatusShipped:   "Your order is on its way",
	model.OrderStatusDelivered: "Your order has been delivered",
	model.OrderStatusCancelled: "Your order has been cancelled",
}

// BuildStatusNotification формирует уведомление для нового статуса заказа.
// Для отклонённого заказа к сообщению добавляется причина отказа.
func BuildStatusNotification(order *model.Order) *model.Notification {
	title, ok := statusTitles[order.Status]
	if !ok {
		title = fmt.Sprintf("Order status changed to %s", order.Status)
	}

	message := fmt.Sprintf("%s (order %s)", title, order.ID)
	if order.Status == model.OrderStatusRejected && order.RejectionReason != nil && *order.RejectionReason != "" {
		message += ": " + *order.RejectionReason
	}

	return &model.Notification{
		AccountID: order.AccountID,
		OrderID:   order.ID,
		Kind:      string(order.Status),
		Message:   message,
	}
}

// Store описывает контракт сохранения уведомлений.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Emitter сохраняет уведомления и дублирует их на внешний webhook,
// если он настроен. Доставка webhook — best effort: ошибки логируются
// и не влияют на результат операции.
type Emitter struct {
	store      Store
	webhookURL string
	httpClient *retryablehttp.Client
	logger     *zap.Logger
}

// NewEmitter создаёт эмиттер уведомлений. Пустой webhookAddress отключает
// отправку на внешний адрес.
func NewEmitter(store Store, webhookAddress string, logger *zap.Logger) *Emitter {
	e := &Emitter{
		store:  store,
		logger: logger,
	}

	if webhookAddress != "" {
		base := strings.TrimRight(webhookAddress, "/")
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "http://" + base
		}
		e.webhookURL = base + "/api/notifications"

		client := retryablehttp.NewClient()
		client.RetryMax = webhookRetries
		client.HTTPClient.Timeout = webhookTimeout
		client.Logger = nil
		e.httpClient = client
	}

	return e
}

// Enqueue сохраняет уведомление и отправляет его на webhook.
// Ошибка возвращается только если не удалось сохранить запись.
func (e *Emitter) Enqueue(ctx context.Context, n *model.Notification) error {
	if err := e.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	e.postWebhook(ctx, n)
	return nil
}

type webhookPayload struct {
	AccountID int64  `json:"account_id"`
	OrderID   string `json:"order_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

func (e *Emitter) postWebhook(ctx context.Context, n *model.Notification) {
	if e.httpClient == nil {
		return
	}

	body, err := json.Marshal(webhookPayload{
		AccountID: n.AccountID,
		OrderID:   n.OrderID,
		Kind:      n.Kind,
		Message:   n.Message,
	})
	if err != nil {
		e.logger.Error("marshal webhook payload", zap.Error(err))
		return
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.webhookURL, bytes.NewReader(body))
	if err != nil {
		e.logger.Error("create webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Warn("notification webhook failed", zap.Error(err), zap.String("order", n.OrderID))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		e.logger.Warn("notification webhook rejected",
			zap.Int("status", resp.StatusCode), zap.String("order", n.OrderID))
	}
}
