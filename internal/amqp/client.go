package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishRetries = 3
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

// NewClient connects and declares the durable exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn = conn
	c.channel = channel
	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The queue name doubles as the routing key on the direct exchange.
	if err := ch.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTransactionRecorded announces a new SQLite row.
func (c *Client) PublishTransactionRecorded(ctx context.Context, transactionID int64) error {
	return c.Publish(ctx, NewTransactionRecordedMessage(transactionID))
}

// PublishLedgerReplaced announces a full overwrite.
func (c *Client) PublishLedgerReplaced(ctx context.Context, records int) error {
	return c.Publish(ctx, NewLedgerReplacedMessage(records))
}

// Publish sends msg as a persistent JSON message, reconnecting and retrying
// connection errors with exponential backoff.
func (c *Client) Publish(ctx context.Context, msg *Message) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msg.Type, ErrCircuitOpen)
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < publishRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		lastErr = c.publishOnce(ctx, msg, body)
		if lastErr == nil {
			c.recordSuccess()
			slog.InfoContext(ctx, "Published ledger message",
				"id", msg.ID,
				"type", msg.Type,
				"transaction_id", msg.TransactionID,
				"exchange", c.exchangeName)
			return nil
		}
		c.recordFailure()
		if !isConnectionError(lastErr) || c.isCircuitOpen() {
			break
		}
		slog.WarnContext(ctx, "Publish failed, retrying", "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("publish message: %w", lastErr)
}

func (c *Client) publishOnce(ctx context.Context, msg *Message, body []byte) error {
	if err := c.connect(); err != nil {
		return err
	}
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(ctx,
		c.exchangeName,
		c.queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Type:         msg.Type,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
}

// Handler processes one decoded message. A returned error requeues it.
type Handler func(ctx context.Context, msg *Message) error

// Consume delivers messages to handler until ctx is cancelled, reconnecting
// with backoff whenever the broker drops the channel.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msgs, err := c.startConsuming()
		if err != nil {
			c.recordFailure()
			wait := exponentialBackoff(attempt)
			attempt++
			slog.WarnContext(ctx, "Consumer setup failed", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		c.recordSuccess()
		attempt = 0
		slog.InfoContext(ctx, "Started consuming ledger messages", "queue", c.queueName)

		if err := c.drain(ctx, msgs, handler); err != nil {
			return err
		}
		slog.WarnContext(ctx, "Delivery channel closed, reconnecting", "queue", c.queueName)
	}
}

func (c *Client) startConsuming() (<-chan amqp091.Delivery, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return msgs, nil
}

// drain returns nil when the delivery channel closes and ctx.Err() on cancel.
func (c *Client) drain(ctx context.Context, msgs <-chan amqp091.Delivery, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery acks on success, requeues handler failures and drops
// messages that cannot be decoded.
func handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	msg, err := MessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message", "error", err, "message_id", d.MessageId)
		_ = d.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message", "error", err, "id", msg.ID, "type", msg.Type)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
	slog.InfoContext(ctx, "Processed ledger message", "id", msg.ID, "type", msg.Type)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// isCircuitOpen moves an open breaker to half-open once openTimeout has passed.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "dial", "channel/connection is not open"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
