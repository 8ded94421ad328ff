package messaging

import (
	"fmt"

	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/rizkirmdhn/bililinks/pkg/models"
)

// Routing keys for crawler events
const (
	LinksRoutingKey = "links.discovered"
	LogRoutingKey   = "scraper.log"
)

// LinkPublisher publishes crawler events on the configured exchange.
type LinkPublisher struct {
	client   Client
	exchange string
}

func NewLinkPublisher(client Client, cfg *config.RabbitMQConfig) *LinkPublisher {
	return &LinkPublisher{
		client:   client,
		exchange: cfg.Exchange,
	}
}

// Setup declares the link and log queues and binds them to the exchange.
func (p *LinkPublisher) Setup(queues config.QueueNames) error {
	bindings := []struct {
		name       string
		routingKey string
	}{
		{queues.LinkQueue, LinksRoutingKey},
		{queues.LogQueue, LogRoutingKey},
	}

	for _, q := range bindings {
		if err := p.client.DeclareQueue(q.name); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
		if err := p.client.BindQueue(q.name, p.exchange, q.routingKey); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", q.name, err)
		}
	}

	return nil
}

func (p *LinkPublisher) PublishLink(event models.LinkEvent) error {
	return p.client.PublishJSON(p.exchange, LinksRoutingKey, event)
}

// PublishRun sends the run summary as a scraper log message.
func (p *LinkPublisher) PublishRun(summary models.RunSummary) error {
	return p.client.PublishJSON(p.exchange, LogRoutingKey, models.ScrapLog{
		Status: summary.Status,
		Error:  summary.Error,
		Run:    &summary,
	})
}
