package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/rizkirmdhn/bililinks/internal/common/messaging"
	"github.com/rizkirmdhn/bililinks/internal/web/websocket"
	"github.com/rizkirmdhn/bililinks/pkg/models"
	"github.com/sirupsen/logrus"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<h1>%s</h1>
<p id="status">waiting for crawler events</p>
<ol id="links"></ol>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (e) => {
  const msg = JSON.parse(e.data);
  if (msg.type === "link") {
    const li = document.createElement("li");
    const a = document.createElement("a");
    a.href = msg.data.url;
    a.textContent = msg.data.url;
    li.appendChild(a);
    document.getElementById("links").appendChild(li);
  } else if (msg.type === "run") {
    document.getElementById("status").textContent = "run " + msg.data.run_id + ": " + msg.data.status + " (" + msg.data.links + " links)";
  }
};
</script>
</body>
</html>`

type Handler struct {
	webCfg    *config.WebPanelConfig
	rabbitCfg *config.RabbitMQConfig
	title     string
	log       *logrus.Logger
	msgClient messaging.Client
	wsHub     *websocket.Hub
	feed      *Feed
}

func NewHandler(title string, webCfg *config.WebPanelConfig, rabbitCfg *config.RabbitMQConfig, log *logrus.Logger, msgClient messaging.Client) *Handler {
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	return &Handler{
		webCfg:    webCfg,
		rabbitCfg: rabbitCfg,
		title:     title,
		log:       log,
		msgClient: msgClient,
		wsHub:     wsHub,
		feed:      NewFeed(webCfg.Recent),
	}
}

// Start consumes the crawler's link and log queues until ctx is done.
func (h *Handler) Start(ctx context.Context) error {
	if err := messaging.NewLinkPublisher(h.msgClient, h.rabbitCfg).Setup(h.rabbitCfg.Queue); err != nil {
		return fmt.Errorf("failed to set up queues: %w", err)
	}

	if err := h.msgClient.ConsumeWithContext(ctx, h.rabbitCfg.Queue.LinkQueue, h.handleLinkMessage); err != nil {
		return fmt.Errorf("failed to consume link queue: %w", err)
	}
	if err := h.msgClient.ConsumeWithContext(ctx, h.rabbitCfg.Queue.LogQueue, h.handleLogMessage); err != nil {
		return fmt.Errorf("failed to consume log queue: %w", err)
	}

	return nil
}

func (h *Handler) handleLinkMessage(message []byte) error {
	var event models.LinkEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return fmt.Errorf("failed to unmarshal link event: %w", err)
	}

	h.feed.AddLink(event)
	h.broadcast("link", event)
	return nil
}

func (h *Handler) handleLogMessage(message []byte) error {
	var scrapLog models.ScrapLog
	if err := json.Unmarshal(message, &scrapLog); err != nil {
		return fmt.Errorf("failed to unmarshal scraper log: %w", err)
	}
	if scrapLog.Run == nil {
		return nil
	}

	h.feed.AddRun(*scrapLog.Run)
	h.broadcast("run", scrapLog.Run)
	h.log.WithFields(logrus.Fields{
		"run_id": scrapLog.Run.RunID,
		"status": scrapLog.Run.Status,
		"links":  scrapLog.Run.Links,
	}).Info("Crawler run finished")
	return nil
}

// broadcast sends an event to all WebSocket clients
func (h *Handler) broadcast(kind string, data any) {
	wsMessage, err := json.Marshal(map[string]any{
		"type": kind,
		"data": data,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	h.wsHub.Broadcast(wsMessage)
}

// RegisterRoutes registers all the routes for the web handler
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.IndexHandler())
	r.GET("/ws", h.WebSocketHandler())

	api := r.Group("/api")
	{
		api.GET("/links", h.GetLinksHandler())
		api.GET("/stats", h.GetStatsHandler())
	}
}

// IndexHandler serves the live view
func (h *Handler) IndexHandler() gin.HandlerFunc {
	title := html.EscapeString(h.title)
	page := fmt.Sprintf(indexHTML, title, title)
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}

// WebSocketHandler returns the WebSocket connection handler
func (h *Handler) WebSocketHandler() gin.HandlerFunc {
	return websocket.WebSocketHandler(h.wsHub, h.log)
}

// GetLinksHandler returns the most recently discovered links
func (h *Handler) GetLinksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		links := h.feed.Recent()
		c.JSON(http.StatusOK, gin.H{
			"total": len(links),
			"links": links,
		})
	}
}

// GetStatsHandler returns totals over every run seen by the panel
func (h *Handler) GetStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.feed.Stats())
	}
}
