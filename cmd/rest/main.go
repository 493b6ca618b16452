package main

import (
	"context"
	"log"

	"ai-helpdesk-be/internal/bootstrap"
	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/server"
	"ai-helpdesk-be/internal/tracer"
	"ai-helpdesk-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Ingestion Service...")
		if err := container.IngestionService.Consume(context.Background()); err != nil {
			log.Printf("Background Ingestion Error: %v", err)
			return
		}
		// Pick up documents accepted before the last restart.
		if err := container.IngestionService.RequeuePending(context.Background()); err != nil {
			log.Printf("Background Requeue Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
