// Package events publishes committed decisions to RabbitMQ so downstream
// consumers (budgeting, analytics) can react without polling the store.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

const (
	RoutingKeySplit  = "transaction.split"
	RoutingKeyShared = "transaction.shared"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives both event kinds
	for _, key := range []string{RoutingKeySplit, RoutingKeyShared} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", key, err)
		}
	}

	return nil
}

// TransactionSplit implements commit.Publisher.
func (c *Client) TransactionSplit(ctx context.Context, parentID string, childIDs []string) error {
	body, err := NewTransactionSplitMessage(parentID, childIDs).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal split message: %w", err)
	}

	if err := c.publish(ctx, RoutingKeySplit, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published split event",
		"transaction_id", parentID,
		"children", len(childIDs),
		"exchange", c.exchangeName)

	return nil
}

// TransactionShared implements commit.Publisher.
func (c *Client) TransactionShared(ctx context.Context, transactionID string, personal, owed core.Money) error {
	body, err := NewTransactionSharedMessage(transactionID, personal.Cents, owed.Cents).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal shared message: %w", err)
	}

	if err := c.publish(ctx, RoutingKeyShared, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published share event",
		"transaction_id", transactionID,
		"exchange", c.exchangeName)

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
