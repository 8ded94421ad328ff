package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/rizkirmdhn/bililinks/internal/common/logger"
	"github.com/rizkirmdhn/bililinks/internal/common/messaging"
	"github.com/rizkirmdhn/bililinks/internal/web/handler"
)

func main() {
	// Load the configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	webCfg := cfg.GetWebPanelConfig()
	rabbitCfg := cfg.GetRabbitMQConfig()

	log := logger.New(cfg)
	log.Infof("Web panel configuration: %+v", *webCfg)

	msgClient, err := messaging.NewRabbitMQClient(rabbitCfg, log)
	if err != nil {
		log.Fatalf("Failed to create RabbitMQ client: %v", err)
	}
	defer msgClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := handler.NewHandler(cfg.GetAppConfig().Name, webCfg, rabbitCfg, log, msgClient)
	if err := h.Start(ctx); err != nil {
		log.Fatalf("Failed to start consuming crawler events: %v", err)
	}

	r := gin.Default()
	h.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", webCfg.Host, webCfg.Port)
	log.Infof("Starting web server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}
