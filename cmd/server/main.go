package main

import (
	"context"
	"log"

	"github.com/dmaltsev/tasklist/internal/server"
	"github.com/dmaltsev/tasklist/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, environment variables may be set elsewhere.
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	app.Run(context.Background())
}
