package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smorozov/shopcore/internal/model"
)

type stubStore struct {
	created []*model.Notification
	err     error
}

func (s *stubStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

func TestBuildStatusNotification(t *testing.T) {
	order := &model.Order{
		ID:        "ORD-0123456789AB",
		AccountID: 42,
		Status:    model.OrderStatusShipped,
	}

	n := BuildStatusNotification(order)

	if n.AccountID != 42 || n.OrderID != order.ID {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Kind != "shipped" {
		t.Fatalf("kind = %q, want shipped", n.Kind)
	}
	if n.Message == "" {
		t.Fatalf("message must not be empty")
	}
}

func TestBuildStatusNotification_RejectedAppendsReason(t *testing.T) {
	reason := "blurry payment proof"
	order := &model.Order{
		ID:              "ORD-0123456789AB",
		AccountID:       42,
		Status:          model.OrderStatusRejected,
		RejectionReason: &reason,
	}

	n := BuildStatusNotification(order)

	if n.Kind != "rejected" {
		t.Fatalf("kind = %q, want rejected", n.Kind)
	}
	if want := ": " + reason; len(n.Message) < len(want) || n.Message[len(n.Message)-len(want):] != want {
		t.Fatalf("message %q must end with the rejection reason", n.Message)
	}
}

func TestEnqueue_PostsWebhook(t *testing.T) {
	received := make(chan webhookPayload, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/notifications" {
			t.Errorf("path = %s, want /api/notifications", r.URL.Path)
		}

		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := &stubStore{}
	e := NewEmitter(store, ts.URL, zap.NewNop())

	n := &model.Notification{
		AccountID: 42,
		OrderID:   "ORD-0123456789AB",
		Kind:      "approved",
		Message:   "Your order has been approved (order ORD-0123456789AB)",
	}

	if err := e.Enqueue(context.Background(), n); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(store.created))
	}

	select {
	case p := <-received:
		if p.OrderID != n.OrderID || p.Kind != "approved" {
			t.Fatalf("unexpected webhook payload: %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("webhook was not called")
	}
}

func TestEnqueue_StoreFailureIsReturned(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	e := NewEmitter(store, "", zap.NewNop())

	err := e.Enqueue(context.Background(), &model.Notification{OrderID: "ORD-0123456789AB"})
	if err == nil {
		t.Fatalf("expected error when the store write fails")
	}
}

func TestEnqueue_WebhookFailureIsSwallowed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	store := &stubStore{}
	e := NewEmitter(store, ts.URL, zap.NewNop())

	err := e.Enqueue(context.Background(), &model.Notification{OrderID: "ORD-0123456789AB"})
	if err != nil {
		t.Fatalf("webhook failure must not fail Enqueue, got %v", err)
	}
}

func TestEnqueue_NoWebhookConfigured(t *testing.T) {
	store := &stubStore{}
	e := NewEmitter(store, "", zap.NewNop())

	if err := e.Enqueue(context.Background(), &model.Notification{OrderID: "ORD-0123456789AB"}); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(store.created))
	}
}
