// AMQP-backed Notifier.
//
// Push delivery itself is owned by a downstream worker; this publisher only
// resolves the user's device address and enqueues the payload on a durable
// queue. Errors are logged and returned so callers can decide whether the
// surrounding unit of work fails, but nothing here mutates business state.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// DefaultQueue is the queue push workers consume from.
const DefaultQueue = "notifications.push"

// AddressResolver looks up a user's current push-delivery address
// (device instance id). An empty address with a nil error means the user has
// no registered device.
type AddressResolver interface {
	InstanceID(ctx context.Context, userID string) (string, error)
}

// pushMessage is the JSON envelope placed on the queue.
type pushMessage struct {
	UserID     string            `json:"user_id"`
	InstanceID string            `json:"instance_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Data       map[string]string `json:"data,omitempty"`
	EnqueuedAt string            `json:"enqueued_at"`
}

// AMQPNotifier publishes notifications to RabbitMQ. A connection is dialed
// per Send; the engine's fan-outs are short-lived units of work and the
// publisher must never hold broker state across them.
type AMQPNotifier struct {
	URL       string
	Queue     string
	Addresses AddressResolver
}

// NewAMQPNotifier constructs a notifier bound to url, publishing to queue
// (DefaultQueue when blank) and resolving device addresses via addrs.
func NewAMQPNotifier(url, queue string, addrs AddressResolver) *AMQPNotifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPNotifier{URL: url, Queue: queue, Addresses: addrs}
}

// Send resolves userID's device address and enqueues the notification.
// A user without a registered device is skipped silently.
func (p *AMQPNotifier) Send(ctx context.Context, userID string, n Notification) error {
	instanceID, err := p.Addresses.InstanceID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("notify: resolve device address")
		return err
	}
	if instanceID == "" {
		log.Debug().Str("user_id", userID).Msg("notify: no registered device, skipping")
		return nil
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Error().Err(err).Msg("notify: amqp dial")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("notify: amqp channel")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so payloads survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		log.Error().Err(err).Str("queue", p.Queue).Msg("notify: queue declare")
		return err
	}

	body, err := json.Marshal(pushMessage{
		UserID:     userID,
		InstanceID: instanceID,
		Title:      n.Title,
		Body:       n.Body,
		Data:       n.Data,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
