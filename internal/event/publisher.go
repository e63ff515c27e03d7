package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"movie-booking/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BookingConfirmed is published once a booking's seats are permanently assigned.
type BookingConfirmed struct {
	BookingID        string    `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           string    `json:"user_id"`
	ShowtimeID       string    `json:"showtime_id"`
	SeatIDs          []string  `json:"seat_ids"`
	SeatNumbers      []string  `json:"seats"`
	TotalAmount      float64   `json:"total_amount"`
	Currency         string    `json:"currency"`
	PaymentID        string    `json:"payment_id"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, evt BookingConfirmed) error
	Close() error
}

const (
	defaultDialTimeout = 5 * time.Second
	// redialBackoff keeps an unreachable broker from costing every caller a dial timeout.
	redialBackoff = 5 * time.Second
)

var errBrokerBackoff = errors.New("rabbitmq unreachable, redial backing off")

type amqpPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	// sem is a one-slot lock that callers can stop waiting on.
	sem     chan struct{}
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewAMQPPublisher dials lazily on first publish and redials after the
// broker drops the connection. Dialing is bounded by the caller's context.
func NewAMQPPublisher(config utils.RabbitMQConfig, log *zap.Logger) Publisher {
	return &amqpPublisher{
		url:   config.URL,
		queue: config.Queue,
		log:   log.With(zap.String("publisher", "amqp")),
		sem:   make(chan struct{}, 1),
	}
}

func (p *amqpPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for rabbitmq channel: %w", ctx.Err())
	}
}

func (p *amqpPublisher) unlock() {
	<-p.sem
}

func (p *amqpPublisher) PublishBookingConfirmed(ctx context.Context, evt BookingConfirmed) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal booking confirmed event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.BookingID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("publish booking %s: %w", evt.BookingID, err)
	}

	return nil
}

// channel must be called holding sem.
func (p *amqpPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && p.conn != nil && !p.conn.IsClosed() && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if time.Now().Before(p.retryAt) {
		return nil, errBrokerBackoff
	}

	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("dial rabbitmq: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		p.retryAt = time.Now().Add(redialBackoff)
		p.log.Warn("RabbitMQ dial failed", zap.Duration("timeout", timeout), zap.Error(err))
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	// Durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.conn, p.ch = conn, ch
	p.log.Info("RabbitMQ channel ready", zap.String("queue", p.queue))
	return ch, nil
}

func (p *amqpPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *amqpPublisher) Close() error {
	_ = p.lock(context.Background())
	defer p.unlock()
	p.reset()
	return nil
}

type nopPublisher struct{}

// NewNopPublisher is used when no broker is configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishBookingConfirmed(context.Context, BookingConfirmed) error { return nil }
func (nopPublisher) Close() error                                                    { return nil }
