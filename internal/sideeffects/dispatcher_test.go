package sideeffects

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	"github.com/parkyoungho/marushop-backend/internal/notifications"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

type sentMail struct {
	to      string
	subject string
}

type stubSender struct {
	sent   []sentMail
	failTo string
}

func (s *stubSender) Send(_ context.Context, to, subject, _ string) error {
	if s.failTo != "" && to == s.failTo {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject})
	return nil
}

// panicNotifier blows up on Notify to prove step isolation.
type panicNotifier struct {
	notifications.Service
}

func (panicNotifier) Notify(context.Context, uuid.UUID, enums.NotificationType, string, string) error {
	panic("notification store offline")
}

type stubCache struct {
	invalidated []string
}

func (c *stubCache) InvalidateRecommendations(_ context.Context, userID string) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func testEvent(locale string) checkout.Event {
	user := &models.User{ID: uuid.New(), Email: "minji@example.kr", Locale: locale}
	order := &models.Order{
		ID:         uuid.New(),
		UserID:     user.ID,
		TotalCents: 3000,
		Currency:   enums.CurrencyKRW,
		Items:      []models.OrderItem{{Name: "Green Tea", Qty: 2, PriceCents: 1500}},
	}
	return checkout.Event{Order: order, User: user, CartID: uuid.New()}
}

func TestOrderFinalizedIsolatesFailingSteps(t *testing.T) {
	t.Parallel()

	sender := &stubSender{failTo: "minji@example.kr"}
	cache := &stubCache{}
	d := NewDispatcher(sender, panicNotifier{}, cache, nil, config.AlertsConfig{})

	evt := testEvent("ko")
	d.OrderFinalized(context.Background(), evt)

	// The email failed and the notifier panicked, yet invalidation still ran.
	if len(cache.invalidated) != 1 || cache.invalidated[0] != evt.User.ID.String() {
		t.Fatalf("expected recommendation invalidation for %s, got %v", evt.User.ID, cache.invalidated)
	}
}

func TestOrderFinalizedSendsLowStockAlerts(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	d := NewDispatcher(sender, nil, nil, nil, config.AlertsConfig{LowStockEmail: "ops@marushop.kr"})

	evt := testEvent("ko")
	evt.LowStock = []inventory.LowStockAlert{
		{ProductID: uuid.New(), InStock: 2, Threshold: 3},
	}
	d.OrderFinalized(context.Background(), evt)

	var alertMail *sentMail
	for i := range sender.sent {
		if sender.sent[i].to == "ops@marushop.kr" {
			alertMail = &sender.sent[i]
		}
	}
	if alertMail == nil {
		t.Fatalf("expected low-stock mail to ops, sent: %+v", sender.sent)
	}
	if !strings.Contains(alertMail.subject, "low stock") {
		t.Fatalf("unexpected alert subject %q", alertMail.subject)
	}
}

func TestOrderFinalizedSkipsAlertsWithoutRecipient(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	d := NewDispatcher(sender, nil, nil, nil, config.AlertsConfig{})

	evt := testEvent("en")
	evt.LowStock = []inventory.LowStockAlert{
		{ProductID: uuid.New(), InStock: 1, Threshold: 5},
	}
	d.OrderFinalized(context.Background(), evt)

	// Only the buyer's confirmation goes out.
	if len(sender.sent) != 1 || sender.sent[0].to != "minji@example.kr" {
		t.Fatalf("unexpected outbox: %+v", sender.sent)
	}
}

func TestOrderFinalizedIgnoresIncompleteEvents(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	d := NewDispatcher(sender, nil, nil, nil, config.AlertsConfig{})

	d.OrderFinalized(context.Background(), checkout.Event{})
	if len(sender.sent) != 0 {
		t.Fatalf("incomplete event produced mail: %+v", sender.sent)
	}
}

func TestConfirmationLocalization(t *testing.T) {
	t.Parallel()

	ko := testEvent("ko")
	subject, body := confirmationMail(ko)
	if subject != "주문이 완료되었습니다" {
		t.Fatalf("unexpected korean subject %q", subject)
	}
	if !strings.Contains(body, ko.Order.ID.String()) {
		t.Fatalf("korean body missing order id: %q", body)
	}
	title, _ := confirmationNotice(ko)
	if title != "주문 완료" {
		t.Fatalf("unexpected korean title %q", title)
	}

	en := testEvent("en")
	subject, body = confirmationMail(en)
	if subject != "Your order is confirmed" {
		t.Fatalf("unexpected english subject %q", subject)
	}
	if !strings.Contains(body, "3000 KRW") {
		t.Fatalf("english body missing total: %q", body)
	}
	title, _ = confirmationNotice(en)
	if title != "Order confirmed" {
		t.Fatalf("unexpected english title %q", title)
	}
}
