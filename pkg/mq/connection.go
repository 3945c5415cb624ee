package mq

import (
	"fmt"
	"os"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "onboarding.events"

	dialAttempts  = 5
	dialBackoff   = 500 * time.Millisecond
	heartbeatRate = 10 * time.Second
)

// NewConnection dials RabbitMQ, retrying briefly so a service that starts
// before the broker does not exit immediately.
func NewConnection(url string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	if host, err := os.Hostname(); err == nil {
		props.SetClientConnectionName(host)
	}
	cfg := amqp091.Config{
		Heartbeat:  heartbeatRate,
		Locale:     "en_US",
		Properties: props,
	}

	var lastErr error
	backoff := dialBackoff
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.DialConfig(url, cfg)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt < dialAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", dialAttempts, lastErr)
}

// DeclareExchange declares the durable topic exchange all onboarding events go through.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
