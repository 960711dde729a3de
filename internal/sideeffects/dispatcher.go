package sideeffects

import (
	"context"
	"fmt"

	"github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/internal/notifications"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/email"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/redis"
)

// Dispatcher runs the post-finalization side effects in a fixed order:
// confirmation email, low-stock alerts, in-app notification, recommendation
// cache invalidation. Each step is isolated; a failing or panicking step is
// logged and the remaining steps still run. Nothing here can undo the order.
type Dispatcher struct {
	sender   email.Sender
	notifier notifications.Service
	recs     redis.RecommendationCache
	logg     *logger.Logger
	alerts   config.AlertsConfig
}

// NewDispatcher wires the side-effect stack. Every collaborator is optional;
// a nil one skips its step.
func NewDispatcher(
	sender email.Sender,
	notifier notifications.Service,
	recs redis.RecommendationCache,
	logg *logger.Logger,
	alerts config.AlertsConfig,
) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		notifier: notifier,
		recs:     recs,
		logg:     logg,
		alerts:   alerts,
	}
}

// OrderFinalized fans the finalized order out to every side effect.
func (d *Dispatcher) OrderFinalized(ctx context.Context, evt checkout.Event) {
	if evt.Order == nil || evt.User == nil {
		return
	}
	ctx = d.withOrder(ctx, evt)

	d.step(ctx, "confirmation_email", func(ctx context.Context) error {
		return d.sendConfirmation(ctx, evt)
	})
	d.step(ctx, "low_stock_alerts", func(ctx context.Context) error {
		return d.sendLowStockAlerts(ctx, evt)
	})
	d.step(ctx, "order_confirmed_notification", func(ctx context.Context) error {
		return d.createNotification(ctx, evt)
	})
	d.step(ctx, "recommendation_invalidation", func(ctx context.Context) error {
		return d.invalidateRecommendations(ctx, evt)
	})
}

// step runs one side effect, containing both errors and panics.
func (d *Dispatcher) step(ctx context.Context, name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil && d.logg != nil {
			d.logg.Error(ctx, "side effect panicked: "+name, fmt.Errorf("%v", r))
		}
	}()
	if err := fn(ctx); err != nil && d.logg != nil {
		d.logg.Error(ctx, "side effect failed: "+name, err)
	}
}

func (d *Dispatcher) sendConfirmation(ctx context.Context, evt checkout.Event) error {
	if d.sender == nil {
		return nil
	}
	subject, body := confirmationMail(evt)
	return d.sender.Send(ctx, evt.User.Email, subject, body)
}

func (d *Dispatcher) sendLowStockAlerts(ctx context.Context, evt checkout.Event) error {
	for _, alert := range evt.LowStock {
		if d.logg != nil {
			alertCtx := d.logg.WithFields(ctx, map[string]any{
				"product_id": alert.ProductID.String(),
				"in_stock":   alert.InStock,
				"threshold":  alert.Threshold,
			})
			d.logg.Warn(alertCtx, "product stock at or below threshold")
		}
		if d.sender == nil || d.alerts.LowStockEmail == "" {
			continue
		}
		subject := fmt.Sprintf("[MaruShop] low stock: %s", alert.ProductID)
		body := fmt.Sprintf(
			"Product %s has %d units left (threshold %d).",
			alert.ProductID, alert.InStock, alert.Threshold,
		)
		if err := d.sender.Send(ctx, d.alerts.LowStockEmail, subject, body); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) createNotification(ctx context.Context, evt checkout.Event) error {
	if d.notifier == nil {
		return nil
	}
	title, message := confirmationNotice(evt)
	return d.notifier.Notify(ctx, evt.User.ID, enums.NotificationOrderConfirmed, title, message)
}

func (d *Dispatcher) invalidateRecommendations(ctx context.Context, evt checkout.Event) error {
	if d.recs == nil {
		return nil
	}
	return d.recs.InvalidateRecommendations(ctx, evt.User.ID.String())
}

func (d *Dispatcher) withOrder(ctx context.Context, evt checkout.Event) context.Context {
	if d.logg == nil {
		return ctx
	}
	ctx = d.logg.WithOrderID(ctx, evt.Order.ID.String())
	return d.logg.WithUserID(ctx, evt.User.ID.String())
}

func confirmationMail(evt checkout.Event) (subject, body string) {
	total := fmt.Sprintf("%d %s", evt.Order.TotalCents, evt.Order.Currency)
	if evt.User.Locale == "ko" {
		subject = "주문이 완료되었습니다"
		body = fmt.Sprintf(
			"주문번호 %s\n상품 %d종, 결제 금액 %s\n주문해 주셔서 감사합니다.",
			evt.Order.ID, len(evt.Order.Items), total,
		)
		return subject, body
	}
	subject = "Your order is confirmed"
	body = fmt.Sprintf(
		"Order %s\n%d item(s), total %s\nThank you for shopping with us.",
		evt.Order.ID, len(evt.Order.Items), total,
	)
	return subject, body
}

func confirmationNotice(evt checkout.Event) (title, message string) {
	if evt.User.Locale == "ko" {
		return "주문 완료", fmt.Sprintf("주문 %s 결제가 확인되었습니다.", evt.Order.ID)
	}
	return "Order confirmed", fmt.Sprintf("Payment for order %s was confirmed.", evt.Order.ID)
}
