package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/streadway/amqp"

	"resume-tailor/internal/shared/telemetry"
)

// DefaultExchange is the topic exchange status events go to.
const DefaultExchange = "application_updates"

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes StatusChanged events to a topic exchange with
// routing key "application.<id>".
type AMQPPublisher struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	open func() (amqpChannel, error)
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}

	p := &AMQPPublisher{exchange: exchange, conn: conn}
	p.open = func() (amqpChannel, error) { return conn.Channel() }
	return p, nil
}

// RoutingKey returns the routing key for an application's events.
func RoutingKey(applicationID string) string {
	return "application." + applicationID
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt StatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish(
		p.exchange,
		RoutingKey(evt.ApplicationID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   evt.At,
			Body:        body,
		},
	)
	if err != nil {
		telemetry.Warn("events.publish.failed", map[string]any{
			"application_id": evt.ApplicationID,
			"status":         evt.Status,
			"err":            err,
		})
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

var _ Publisher = (*AMQPPublisher)(nil)
