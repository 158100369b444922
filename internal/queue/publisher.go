package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher hands ticket events to the broker.  Callers treat errors as
// non-fatal.
type Publisher interface {
    PublishTicketEvent(ctx context.Context, ev TicketEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTicketEvent(context.Context, TicketEvent) error { return nil }

// NewPublisher returns an AMQP publisher for url, or a NopPublisher when url
// is empty.
func NewPublisher(url string) Publisher {
    if url == "" {
        return NopPublisher{}
    }
    return &AMQPPublisher{url: url, dialTimeout: 2 * time.Second}
}

// AMQPPublisher keeps one connection and reopens it after it drops.
type AMQPPublisher struct {
    url         string
    dialTimeout time.Duration

    mu   sync.Mutex
    conn *amqp.Connection
}

func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
    if p.conn != nil && !p.conn.IsClosed() {
        return p.conn, nil
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Dial:      amqp.DefaultDial(p.dialTimeout),
    })
    if err != nil {
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    p.conn = conn
    return conn, nil
}

// PublishTicketEvent publishes ev as a persistent JSON message on
// TicketEventsQueue through the default exchange.
func (p *AMQPPublisher) PublishTicketEvent(ctx context.Context, ev TicketEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    conn, err := p.connection()
    if err != nil {
        return err
    }
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(TicketEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", TicketEventsQueue, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// Close releases the broker connection, if any.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil || p.conn.IsClosed() {
        return nil
    }
    return p.conn.Close()
}
