// main.go
// Application entry point: loads configuration, initializes logging and runs
// the chat server until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erilali/webchat/internal/api"
	"github.com/erilali/webchat/internal/config"
	"github.com/erilali/webchat/internal/hub"
	"github.com/erilali/webchat/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CHAT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Log)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"addr":        cfg.Addr,
		"path":        cfg.Path,
		"level":       cfg.Log.Level,
		"log_to_file": cfg.Log.LogToFile,
		"log_to_json": cfg.Log.LogToJSON,
	}).Info("Configuration loaded")

	nc := api.ConnectNATS(cfg.NATSURL, serverLogger)
	events := hub.NewNATSEvents(nc, cfg.NATSSubjectPrefix, logger.NewLogger("events"))
	chatHub := hub.NewHub(api.HubTransport(cfg), events, nil, logger.NewLogger("hub"))
	server := api.NewServer(cfg, chatHub, nc, serverLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		serverLogger.Fatalf("Server error: %v", err)
	}
	serverLogger.Info("Server stopped")
}
