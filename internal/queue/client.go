package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintra/internal/logger"
)

const (
	publishTimeout = 5 * time.Second

	// consumerPrefetch caps unacked deliveries per channel, bounding the
	// number of work-item handlers in flight at once.
	consumerPrefetch = 32
)

// Client wraps one AMQP connection and channel bound to the recurring
// work-item queue.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewClient dials the broker and declares the durable exchange, queue and
// binding the recurring pipeline uses.
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
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,
		RoutingKeyRecurring,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishWorkItem publishes one recurring work item as a persistent message.
func (c *Client) PublishWorkItem(ctx context.Context, item RecurringWorkItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal work item: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		RoutingKeyRecurring,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish work item: %w", err)
	}

	logger.Get().Debugw("published recurring work item",
		"transaction_id", item.TransactionID,
		"user_id", item.UserID)

	return nil
}

// acknowledger is the slice of amqp091.Delivery the dispatch path needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consume delivers recurring work items to handler until ctx is cancelled.
// Each item runs in its own goroutine (bounded by the channel prefetch), so
// one owner's slow item never holds up the rest of the queue. Messages are
// acked only after the handler succeeds; handler failures are requeued and
// malformed payloads are dropped without requeue.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, RecurringWorkItem) error) error {
	log := logger.Get()

	if err := c.channel.Qos(consumerPrefetch, 0, false); err != nil {
		return fmt.Errorf("set channel prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log.Infow("consuming recurring work items", "queue", c.queueName)

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Infow("stopping work item consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				wg.Wait()
				return fmt.Errorf("message channel closed")
			}
			d := delivery
			dispatch(ctx, &wg, d.Body, &d, handler)
		}
	}
}

// dispatch validates one delivery inline and runs the handler asynchronously.
// In-flight handlers are tracked by wg so Consume can drain before returning.
func dispatch(ctx context.Context, wg *sync.WaitGroup, body []byte, ack acknowledger, handler func(context.Context, RecurringWorkItem) error) {
	log := logger.Get()

	var item RecurringWorkItem
	if err := json.Unmarshal(body, &item); err != nil {
		log.Errorw("dropping malformed work item", "error", err)
		ack.Nack(false, false)
		return
	}
	if item.TransactionID == "" || item.UserID == "" {
		log.Errorw("dropping work item with missing identifiers")
		ack.Nack(false, false)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := handler(ctx, item); err != nil {
			log.Errorw("work item handler failed, requeueing",
				"error", err,
				"transaction_id", item.TransactionID,
				"user_id", item.UserID)
			ack.Nack(false, true)
			return
		}

		ack.Ack(false)
	}()
}

// Close releases the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
