package enums

// NotificationType labels in-app notifications.
type NotificationType string

const (
	NotificationOrderConfirmed NotificationType = "order_confirmed"
	NotificationLowStock       NotificationType = "low_stock"
)

func (t NotificationType) String() string {
	return string(t)
}
