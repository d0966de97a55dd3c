package main

import (
	"context"
	"log"
	"os"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/collegedash/college_dashboard/internal/config"
	"github.com/collegedash/college_dashboard/internal/es"
	"github.com/collegedash/college_dashboard/internal/logging"
	"github.com/collegedash/college_dashboard/internal/seed"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Printf("elasticsearch unavailable, skipping indexing: %v", err)
		}
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))
	ctx := logging.IntoContext(context.Background(), logger)

	if err := seed.Run(ctx, db, esClient, "colleges"); err != nil {
		log.Fatalf("seed error: %v", err)
	}
	logger.Info("seeding completed")
}
