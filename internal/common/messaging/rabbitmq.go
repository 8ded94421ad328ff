package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/sirupsen/logrus"
)

// Client defines the messaging client interface
type Client interface {
	// PublishJSON publishes a JSON message to the exchange with the given routing key
	PublishJSON(exchange, routingKey string, data interface{}) error

	// DeclareQueue declares a queue with the given name
	DeclareQueue(name string) error

	// BindQueue binds a queue to an exchange with the given routing key
	BindQueue(queueName, exchange, routingKey string) error

	// ConsumeWithContext consumes messages from the given queue until ctx is done
	ConsumeWithContext(ctx context.Context, queueName string, handler func([]byte) error) error

	// Close closes the connection
	Close() error
}

// amqpChannel is the subset of *amqp.Channel the client uses
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// consumer is a queue subscription that is registered again after a reconnect
type consumer struct {
	ctx     context.Context
	queue   string
	handler func([]byte) error
}

// RabbitMQClient implements the Client interface using RabbitMQ
type RabbitMQClient struct {
	// mu guards conn, channel, consumers and closed; the reconnect goroutine swaps them
	mu        sync.RWMutex
	conn      *amqp.Connection
	channel   amqpChannel
	consumers []consumer
	closed    bool

	config *config.RabbitMQConfig
	log    *logrus.Logger
}

// NewRabbitMQClient creates a new RabbitMQ client
func NewRabbitMQClient(config *config.RabbitMQConfig, log *logrus.Logger) (*RabbitMQClient, error) {
	if config.URL == "" {
		return nil, errors.New("rabbitmq URL is required")
	}

	if config.Exchange == "" {
		return nil, errors.New("rabbitmq exchange name is required")
	}

	client := &RabbitMQClient{
		config: config,
		log:    log,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes a connection to RabbitMQ
func (c *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		c.config.Exchange, // name
		"direct",          // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	// registered before the swap so a close right after connecting is not missed
	connErrChan := conn.NotifyClose(make(chan *amqp.Error, 1))

	if !c.swap(conn, channel) {
		channel.Close()
		conn.Close()
		return errors.New("rabbitmq client is closed")
	}

	go c.handleReconnect(connErrChan)

	return nil
}

// swap installs a new connection and channel unless the client was closed
func (c *RabbitMQClient) swap(conn *amqp.Connection, channel amqpChannel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	c.channel = channel
	return true
}

// handleReconnect attempts to reconnect to RabbitMQ when the connection is lost
func (c *RabbitMQClient) handleReconnect(connErrChan <-chan *amqp.Error) {
	err, ok := <-connErrChan
	if !ok || c.isClosed() {
		// closed on purpose
		return
	}
	c.log.WithError(err).Warn("RabbitMQ connection closed, attempting to reconnect")

	for i := 0; i < c.config.ReconnectRetries; i++ {
		time.Sleep(time.Duration(c.config.ReconnectTimeout) * time.Millisecond)

		if c.isClosed() {
			return
		}

		if err := c.connect(); err == nil {
			c.log.Info("Successfully reconnected to RabbitMQ")
			c.resubscribe()
			return
		}

		c.log.Warnf("Failed to reconnect to RabbitMQ (attempt %d/%d)", i+1, c.config.ReconnectRetries)
	}

	c.log.Error("Failed to reconnect to RabbitMQ after multiple attempts")
}

// resubscribe registers every live consumer on the current channel and forgets
// the ones whose context is done
func (c *RabbitMQClient) resubscribe() {
	c.mu.Lock()
	live := c.consumers[:0]
	for _, sub := range c.consumers {
		if sub.ctx.Err() == nil {
			live = append(live, sub)
		}
	}
	c.consumers = live
	subs := append([]consumer(nil), live...)
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.DeclareQueue(sub.queue); err != nil {
			c.log.WithError(err).WithField("queue", sub.queue).Error("Failed to redeclare queue after reconnect")
			continue
		}
		if err := c.startConsumer(sub); err != nil {
			c.log.WithError(err).WithField("queue", sub.queue).Error("Failed to restore consumer after reconnect")
			continue
		}
		c.log.WithField("queue", sub.queue).Info("Consumer restored after reconnect")
	}
}

func (c *RabbitMQClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *RabbitMQClient) currentChannel() (amqpChannel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.channel == nil {
		return nil, errors.New("rabbitmq channel is not open")
	}
	return c.channel, nil
}

// PublishJSON publishes a JSON message to the exchange with the given routing key
func (c *RabbitMQClient) PublishJSON(exchange, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON message: %w", err)
	}

	if exchange == "" {
		exchange = c.config.Exchange
	}

	channel, err := c.currentChannel()
	if err != nil {
		return err
	}

	return channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// DeclareQueue declares a queue with the given name
func (c *RabbitMQClient) DeclareQueue(name string) error {
	channel, err := c.currentChannel()
	if err != nil {
		return err
	}

	_, err = channel.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)

	return err
}

// BindQueue binds a queue to an exchange with the given routing key
func (c *RabbitMQClient) BindQueue(queueName, exchange, routingKey string) error {
	if exchange == "" {
		exchange = c.config.Exchange
	}

	channel, err := c.currentChannel()
	if err != nil {
		return err
	}

	return channel.QueueBind(
		queueName,  // queue name
		routingKey, // routing key
		exchange,   // exchange
		false,      // no-wait
		nil,        // arguments
	)
}

// ConsumeWithContext consumes messages from the given queue with context support.
// The consumer is registered again whenever the connection is re-established.
func (c *RabbitMQClient) ConsumeWithContext(ctx context.Context, queueName string, handler func([]byte) error) error {
	if err := c.DeclareQueue(queueName); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	sub := consumer{ctx: ctx, queue: queueName, handler: handler}
	if err := c.startConsumer(sub); err != nil {
		return err
	}

	c.mu.Lock()
	c.consumers = append(c.consumers, sub)
	c.mu.Unlock()

	return nil
}

// startConsumer subscribes to the queue on the current channel and handles deliveries
// until ctx is done or the channel goes away
func (c *RabbitMQClient) startConsumer(sub consumer) error {
	channel, err := c.currentChannel()
	if err != nil {
		return err
	}

	msgs, err := channel.Consume(
		sub.queue, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-sub.ctx.Done():
				c.log.WithField("queue", sub.queue).Info("Consumer stopped due to context cancellation")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.log.WithField("queue", sub.queue).Info("Consumer channel closed")
					return
				}

				if err := sub.handler(msg.Body); err != nil {
					c.log.WithError(err).WithField("queue", sub.queue).Error("Error processing message")
					// malformed messages would loop forever if requeued
					msg.Nack(false, false)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// Close closes the connection and channel and stops reconnecting
func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	c.closed = true
	channel, conn := c.channel, c.conn
	c.mu.Unlock()

	if channel != nil {
		channel.Close()
	}

	if conn != nil {
		return conn.Close()
	}

	return nil
}
