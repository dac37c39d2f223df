package main

import (
	"context"
	"log"

	"github.com/poslynx/tillkeeper/internal/server"
	"github.com/poslynx/tillkeeper/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
