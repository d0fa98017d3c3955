package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridehail/internal/domain"
)

// DefaultExchange is the topic exchange notifications are published to.
const DefaultExchange = "notifications"

const dialAttempts = 5

// message is the wire form published for each notification.
type message struct {
	ID           string            `json:"id"`
	RecipientUID string            `json:"recipient_uid"`
	Type         string            `json:"type"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func newMessage(n *domain.Notification) message {
	return message{
		ID:           n.ID,
		RecipientUID: n.RecipientUID,
		Type:         string(n.Type),
		Title:        n.Title,
		Body:         n.Body,
		Data:         n.Data,
		CreatedAt:    n.CreatedAt,
	}
}

func routingKey(t domain.NotificationType) string {
	return "notify." + string(t)
}

// ErrPublisherUnavailable is returned by Notify while the broker connection is down.
var ErrPublisherUnavailable = errors.New("notify: RabbitMQ channel unavailable")

// Publisher publishes notifications to a RabbitMQ topic exchange with routing
// key notify.<type>. Downstream consumers own delivery to devices. A lost
// connection is re-established in the background; Notify never dials.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	stop context.CancelFunc
	done chan struct{}
}

// NewPublisher connects to url and declares the exchange. ctx bounds the
// initial connection only.
func NewPublisher(ctx context.Context, url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{url: url, exchange: exchange}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}

	var watchCtx context.Context
	watchCtx, p.stop = context.WithCancel(context.Background())
	p.done = make(chan struct{})
	go p.maintain(watchCtx)
	return p, nil
}

// connect dials with exponential backoff until it succeeds, the attempts run
// out or ctx ends.
func (p *Publisher) connect(ctx context.Context) error {
	var err error
	for i := 1; i <= dialAttempts; i++ {
		var conn *amqp.Connection
		var ch *amqp.Channel
		conn, ch, err = p.dial(ctx)
		if err == nil {
			p.mu.Lock()
			if ctx.Err() != nil {
				p.mu.Unlock()
				_ = conn.Close()
				return fmt.Errorf("failed to connect to RabbitMQ: %w", ctx.Err())
			}
			p.conn, p.ch = conn, ch
			p.mu.Unlock()
			slog.Info("connected to RabbitMQ", "exchange", p.exchange)
			return nil
		}

		slog.Warn("RabbitMQ dial failed", "attempt", i, "error", err)
		if i == dialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to RabbitMQ: %w", ctx.Err())
		case <-time.After(time.Duration(1<<i) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
}

func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			c, err := (&net.Dialer{}).DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Bounds the handshake; the client clears it once open.
			if deadline, ok := ctx.Deadline(); ok {
				_ = c.SetDeadline(deadline)
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

// maintain reconnects whenever the channel closes, until ctx ends.
func (p *Publisher) maintain(ctx context.Context) {
	defer close(p.done)
	for {
		p.mu.Lock()
		ch := p.ch
		p.mu.Unlock()
		if ch == nil {
			return
		}
		closed := ch.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-ctx.Done():
			return
		case amqpErr := <-closed:
			slog.Warn("RabbitMQ channel closed", "exchange", p.exchange, "error", amqpErr)
		}

		p.mu.Lock()
		if p.conn != nil {
			_ = p.conn.Close()
		}
		p.conn, p.ch = nil, nil
		p.mu.Unlock()

		for p.connect(ctx) != nil {
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Notify implements service.Notifier. It fails fast with
// ErrPublisherUnavailable while a reconnect is pending.
func (p *Publisher) Notify(ctx context.Context, n *domain.Notification) error {
	body, err := json.Marshal(newMessage(n))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		return ErrPublisherUnavailable
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey(n.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close stops reconnecting and releases the channel and connection.
func (p *Publisher) Close() error {
	if p.stop != nil {
		p.stop()
	}

	p.mu.Lock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
	return err
}
