package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/parkyoungho/marushop-backend/internal/checkout"
)

type stubFinalizer struct {
	calls   []checkoutsvc.FinalizeInput
	result  *checkoutsvc.FinalizeResult
	failErr error
}

func (s *stubFinalizer) Finalize(_ context.Context, input checkoutsvc.FinalizeInput) (*checkoutsvc.FinalizeResult, error) {
	s.calls = append(s.calls, input)
	if s.failErr != nil {
		return nil, s.failErr
	}
	return s.result, nil
}

// memoryGuard is an in-process stand-in for the redis-backed guard.
type memoryGuard struct {
	seen map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{seen: map[string]bool{}}
}

func (g *memoryGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if g.seen[eventID] {
		return true, nil
	}
	g.seen[eventID] = true
	return false, nil
}

func (g *memoryGuard) Delete(_ context.Context, eventID string) error {
	delete(g.seen, eventID)
	return nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func stripeBody(eventID, eventType, intentID string, cartID uuid.UUID) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": %q,
		"data": {
			"payment_intent_id": %q,
			"cart_id": %q,
			"customer_email": "minji@example.kr",
			"customer_name": "Kim Minji"
		}
	}`, eventID, eventType, intentID, cartID)
}

func TestStripeWebhookFinalizes(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubFinalizer{result: &checkoutsvc.FinalizeResult{OrderID: orderID}}
	handler := StripeWebhook(svc, newMemoryGuard(), nil)

	cartID := uuid.New()
	rec := postJSON(t, handler, stripeBody("evt_1", "payment_intent.succeeded", "pi_123", cartID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected 1 finalize call, got %d", len(svc.calls))
	}
	call := svc.calls[0]
	if call.CartID != cartID || call.ProviderReference != "pi_123" || call.Provider != "STRIPE" {
		t.Fatalf("unexpected finalize input: %+v", call)
	}

	var envelope struct {
		Data struct {
			OrderID  string `json:"order_id"`
			Replayed bool   `json:"replayed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderID != orderID.String() {
		t.Fatalf("expected order %s, got %s", orderID, envelope.Data.OrderID)
	}
}

func TestStripeWebhookIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	svc := &stubFinalizer{result: &checkoutsvc.FinalizeResult{OrderID: uuid.New()}}
	handler := StripeWebhook(svc, newMemoryGuard(), nil)

	rec := postJSON(t, handler, stripeBody("evt_2", "payment_intent.created", "pi_123", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected ack for ignored event, got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("ignored event reached the finalizer: %+v", svc.calls)
	}
}

func TestStripeWebhookDedupesRedelivery(t *testing.T) {
	t.Parallel()

	svc := &stubFinalizer{result: &checkoutsvc.FinalizeResult{OrderID: uuid.New()}}
	handler := StripeWebhook(svc, newMemoryGuard(), nil)
	body := stripeBody("evt_3", "payment_intent.succeeded", "pi_123", uuid.New())

	postJSON(t, handler, body)
	rec := postJSON(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected ack for redelivery, got %d", rec.Code)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("redelivery reached the finalizer twice: %d calls", len(svc.calls))
	}
}

func TestStripeWebhookUnmarksOnFailure(t *testing.T) {
	t.Parallel()

	svc := &stubFinalizer{failErr: errors.New("db down")}
	guard := newMemoryGuard()
	handler := StripeWebhook(svc, guard, nil)
	body := stripeBody("evt_4", "payment_intent.succeeded", "pi_123", uuid.New())

	rec := postJSON(t, handler, body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on finalize failure, got %d", rec.Code)
	}

	// The retry must get through the guard again.
	svc.failErr = nil
	svc.result = &checkoutsvc.FinalizeResult{OrderID: uuid.New()}
	rec = postJSON(t, handler, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("expected retry to reach the finalizer, got %d calls", len(svc.calls))
	}
}

func TestStripeWebhookRejectsIncompleteEvent(t *testing.T) {
	t.Parallel()

	svc := &stubFinalizer{}
	handler := StripeWebhook(svc, newMemoryGuard(), nil)

	body := `{"id": "evt_5", "type": "payment_intent.succeeded", "data": {"customer_email": "minji@example.kr"}}`
	rec := postJSON(t, handler, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatal("incomplete event reached the finalizer")
	}
}

func TestTossWebhookFinalizes(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubFinalizer{result: &checkoutsvc.FinalizeResult{OrderID: orderID, Replayed: true}}
	handler := TossWebhook(svc, newMemoryGuard(), nil)

	cartID := uuid.New()
	body := fmt.Sprintf(`{
		"event_id": "toss_evt_1",
		"status": "DONE",
		"payment_key": "tk_987",
		"cart_id": %q,
		"customer_email": "minji@example.kr"
	}`, cartID)
	rec := postJSON(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected 1 finalize call, got %d", len(svc.calls))
	}
	call := svc.calls[0]
	if call.Provider != "TOSS" || call.ProviderReference != "tk_987" || call.CartID != cartID {
		t.Fatalf("unexpected finalize input: %+v", call)
	}
}

func TestTossWebhookIgnoresPendingStatus(t *testing.T) {
	t.Parallel()

	svc := &stubFinalizer{}
	handler := TossWebhook(svc, newMemoryGuard(), nil)

	body := fmt.Sprintf(`{
		"event_id": "toss_evt_2",
		"status": "READY",
		"payment_key": "tk_987",
		"cart_id": %q,
		"customer_email": "minji@example.kr"
	}`, uuid.New())
	rec := postJSON(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected ack for non-DONE status, got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatal("non-DONE status reached the finalizer")
	}
}
