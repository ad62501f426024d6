// Package queue carries account notification emails over RabbitMQ: the API
// publishes NotificationEvents, the worker consumes them and hands each one
// to a Mailer.
package queue

// EmailKind selects the template used for a notification.
type EmailKind string

const (
    KindActivation            EmailKind = "activation"
    KindActivationComplete    EmailKind = "activation_complete"
    KindPasswordReset         EmailKind = "password_reset"
    KindPasswordResetComplete EmailKind = "password_reset_complete"
)

// NotificationQueue is the durable queue shared by publisher and consumer.
const NotificationQueue = "notifications.email"

// NotificationEvent is published after an account change has been
// committed. It holds everything needed to render and send the email.
type NotificationEvent struct {
    Kind      EmailKind `json:"kind"`
    Recipient string    `json:"recipient"`
    Link      string    `json:"link"`
    CreatedAt string    `json:"created_at"` // RFC 3339, UTC
}
