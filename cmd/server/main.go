package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"vidstash/internal/server"
	"vidstash/internal/server/config"
)

func main() {

	ctx := context.Background()

	// Optional .env for local development; variables land in parseEnv.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
