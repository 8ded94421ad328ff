package messaging

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/sirupsen/logrus"
)

type fakeChannel struct {
	mu         sync.Mutex
	deliveries map[string]chan amqp.Delivery
	published  int
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(map[string]chan amqp.Delivery)}
}

func (f *fakeChannel) Publish(string, string, bool, bool, amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published++
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(string, string, string, bool, amqp.Table) error { return nil }

func (f *fakeChannel) Consume(queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan amqp.Delivery, 1)
	f.deliveries[queue] = ch
	return ch, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		for _, ch := range f.deliveries {
			close(ch)
		}
	}
	return nil
}

func (f *fakeChannel) deliver(t *testing.T, queue string, body []byte) {
	t.Helper()
	f.mu.Lock()
	ch, ok := f.deliveries[queue]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no consumer registered on %q", queue)
	}
	ch <- amqp.Delivery{Body: body}
}

func (f *fakeChannel) hasConsumer(queue string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.deliveries[queue]
	return ok
}

func newTestRabbitClient(ch amqpChannel) *RabbitMQClient {
	log := logrus.New()
	log.SetOutput(io.Discard)

	c := &RabbitMQClient{config: &config.RabbitMQConfig{Exchange: "bililinks"}, log: log}
	c.swap(nil, ch)
	return c
}

func waitFor(t *testing.T, got <-chan string, want string) {
	t.Helper()
	select {
	case body := <-got:
		if body != want {
			t.Errorf("handled %q, want %q", body, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message %q never reached the handler", want)
	}
}

func TestRabbitMQClient_ResubscribesAfterReconnect(t *testing.T) {
	first := newFakeChannel()
	c := newTestRabbitClient(first)

	got := make(chan string, 2)
	handler := func(body []byte) error {
		got <- string(body)
		return nil
	}
	if err := c.ConsumeWithContext(context.Background(), "scraper_links", handler); err != nil {
		t.Fatalf("ConsumeWithContext error: %v", err)
	}

	first.deliver(t, "scraper_links", []byte("before"))
	waitFor(t, got, "before")

	// broker drops the connection; the old delivery channel closes
	first.Close()
	second := newFakeChannel()
	c.swap(nil, second)
	c.resubscribe()

	if !second.hasConsumer("scraper_links") {
		t.Fatal("consumer was not registered on the new channel")
	}
	second.deliver(t, "scraper_links", []byte("after"))
	waitFor(t, got, "after")
}

func TestRabbitMQClient_ResubscribeDropsCancelledConsumers(t *testing.T) {
	c := newTestRabbitClient(newFakeChannel())

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.ConsumeWithContext(ctx, "scraper_log", func([]byte) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := c.ConsumeWithContext(context.Background(), "scraper_links", func([]byte) error { return nil }); err != nil {
		t.Fatal(err)
	}
	cancel()

	next := newFakeChannel()
	c.swap(nil, next)
	c.resubscribe()

	if next.hasConsumer("scraper_log") {
		t.Error("cancelled consumer was registered again")
	}
	if !next.hasConsumer("scraper_links") {
		t.Error("live consumer was not registered again")
	}
	if len(c.consumers) != 1 {
		t.Errorf("consumers = %d, want 1", len(c.consumers))
	}
}

func TestRabbitMQClient_PublishWhileReconnecting(t *testing.T) {
	c := newTestRabbitClient(newFakeChannel())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := c.PublishJSON("", LinksRoutingKey, map[string]int{"seq": i}); err != nil {
				t.Errorf("PublishJSON error: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.swap(nil, newFakeChannel())
		}
	}()
	wg.Wait()
}

func TestRabbitMQClient_CloseStopsSwaps(t *testing.T) {
	ch := newFakeChannel()
	c := newTestRabbitClient(ch)

	if err := c.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !ch.closed {
		t.Error("channel was not closed")
	}
	if c.swap(nil, newFakeChannel()) {
		t.Error("swap succeeded on a closed client")
	}
}

func TestRabbitMQClient_NoChannel(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	c := &RabbitMQClient{config: &config.RabbitMQConfig{Exchange: "bililinks"}, log: log}

	if err := c.PublishJSON("", LinksRoutingKey, "x"); err == nil {
		t.Error("expected error publishing without a channel")
	}
	if err := c.ConsumeWithContext(context.Background(), "q", func([]byte) error { return nil }); err == nil {
		t.Error("expected error consuming without a channel")
	}
}
