// Command mediaqd runs the mediaq download daemon in the foreground until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"log"
	"os"

	"mediaq/internal/config"
	"mediaq/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load(os.Getenv("MEDIAQ_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	opts := daemonrun.Options{
		LogLevel:    os.Getenv("MEDIAQ_LOG_LEVEL"),
		Development: os.Getenv("MEDIAQ_DEBUG") != "",
	}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		log.Fatalf("mediaqd: %v", err)
	}
}
