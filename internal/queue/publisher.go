package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "net"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/online-cinema/internal/logger"
)

// Publisher sends notification events to RabbitMQ. It satisfies the
// account service's Notifier interface.
type Publisher struct {
    url     string
    now     func() time.Time
    publish func(ctx context.Context, body []byte) error
}

// NewPublisher returns a publisher for the broker at url. A connection is
// opened per message; account emails are rare enough that pooling is not
// worth the reconnect handling.
func NewPublisher(url string) *Publisher {
    p := &Publisher{url: url, now: func() time.Time { return time.Now().UTC() }}
    p.publish = p.publishAMQP
    return p
}

func (p *Publisher) SendActivationEmail(ctx context.Context, email, link string) error {
    return p.send(ctx, KindActivation, email, link)
}

func (p *Publisher) SendActivationCompleteEmail(ctx context.Context, email, link string) error {
    return p.send(ctx, KindActivationComplete, email, link)
}

func (p *Publisher) SendPasswordResetEmail(ctx context.Context, email, link string) error {
    return p.send(ctx, KindPasswordReset, email, link)
}

func (p *Publisher) SendPasswordResetCompleteEmail(ctx context.Context, email, link string) error {
    return p.send(ctx, KindPasswordResetComplete, email, link)
}

func (p *Publisher) send(ctx context.Context, kind EmailKind, email, link string) error {
    body, err := json.Marshal(NotificationEvent{
        Kind:      kind,
        Recipient: email,
        Link:      link,
        CreatedAt: p.now().Format(time.RFC3339),
    })
    if err != nil {
        return fmt.Errorf("marshal %s event: %w", kind, err)
    }
    if err := p.publish(ctx, body); err != nil {
        return fmt.Errorf("publish %s event: %w", kind, err)
    }
    logger.Debugf("rabbitmq: queued %s email for %s", kind, email)
    return nil
}

// dialTimeout bounds the connect and handshake when ctx has no deadline.
const dialTimeout = 5 * time.Second

// dialConfig makes both the TCP connect and the AMQP handshake honour ctx.
// amqp clears the connection deadline once the handshake completes.
func dialConfig(ctx context.Context) amqp.Config {
    return amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial: func(network, addr string) (net.Conn, error) {
            deadline, ok := ctx.Deadline()
            if !ok {
                deadline = time.Now().Add(dialTimeout)
            }
            d := net.Dialer{Deadline: deadline}
            conn, err := d.DialContext(ctx, network, addr)
            if err != nil {
                return nil, err
            }
            if err := conn.SetDeadline(deadline); err != nil {
                _ = conn.Close()
                return nil, err
            }
            return conn, nil
        },
    }
}

func (p *Publisher) publishAMQP(ctx context.Context, body []byte) error {
    conn, err := amqp.DialConfig(p.url, dialConfig(ctx))
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // idempotent; durable so pending mail survives a broker restart
    if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    return ch.PublishWithContext(ctx,
        "",                // default exchange
        NotificationQueue, // routing key = queue name
        false,             // mandatory
        false,             // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    p.now(),
            Body:         body,
        })
}
