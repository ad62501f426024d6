package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/online-cinema/internal/logger"
)

// ErrUnknownKind marks an event whose kind has no template.
var ErrUnknownKind = errors.New("unknown notification kind")

// Consumer reads notification events and delivers them through a Mailer.
type Consumer struct {
    url    string
    mailer Mailer
}

func NewConsumer(url string, mailer Mailer) *Consumer {
    return &Consumer{url: url, mailer: mailer}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) whenever the
// connection or channel drops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            logger.Warningf("mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warningf("mail-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        logger.Warningf("mail-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    logger.Infof("mail-consumer: consuming %s", NotificationQueue)
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                logger.Errorf("mail-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var ev NotificationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Recipient == "" {
        return errors.New("event without recipient")
    }
    msg, err := Compose(ev)
    if err != nil {
        return err
    }
    if err := c.mailer.Send(ctx, msg); err != nil {
        return fmt.Errorf("send %s to %s: %w", ev.Kind, ev.Recipient, err)
    }
    logger.Infof("mail-consumer: sent %s email to %s", ev.Kind, ev.Recipient)
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
