package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edurelay/feishu-class-relay/internal/api"
	"github.com/edurelay/feishu-class-relay/internal/biz/usecase"
	"github.com/edurelay/feishu-class-relay/internal/conf"
	"github.com/edurelay/feishu-class-relay/internal/data"
	"github.com/edurelay/feishu-class-relay/internal/infra/feishu"
	"github.com/edurelay/feishu-class-relay/internal/server"
	"github.com/edurelay/feishu-class-relay/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize transport client
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Feishu.DownloadDir)

	// Initialize repository layer
	repos, err := data.NewRepositories(feishuClient, cfg.Roster.DBPath)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}

	fmt.Printf("[Relay] Roster DB: %s\n", cfg.Roster.DBPath)

	// Initialize usecase layer; a roster load failure is fatal.
	ctx := context.Background()
	rosterUC := usecase.NewRosterUsecase(repos.Roster)
	if err := rosterUC.Load(ctx); err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}
	fmt.Printf("[Relay] Roster loaded: %d students, next id %d\n", len(rosterUC.Snapshot()), rosterUC.NextID())

	broadcastUC := usecase.NewBroadcastUsecase(rosterUC, repos.Message)
	dialogueUC := usecase.NewDialogueUsecase(rosterUC, broadcastUC, repos.Sessions, repos.Message, cfg.Operator.OpenID)

	// Initialize service layer
	relaySvc := service.NewRelayService(rosterUC, dialogueUC, repos.Sessions, cfg.Operator.OpenID)

	// Initialize ops HTTP API (consumed by relay-mcp)
	apiServer := api.NewServer(rosterUC, broadcastUC, cfg.API.Port)
	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("[Relay] API server error: %v\n", err)
		}
	}()
	fmt.Printf("[Relay] Ops API started on port %d\n", cfg.API.Port)

	// Initialize server
	srv := server.NewFeishuServer(feishuClient, relaySvc)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
		apiServer.Stop()
		_ = repos.Roster.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting Feishu Class Relay...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
