package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/dmarcstore/config"
	"github.com/customeros/dmarcstore/internal/cron"
	"github.com/customeros/dmarcstore/internal/database"
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/migration"
	"github.com/customeros/dmarcstore/internal/repository"
	"github.com/customeros/dmarcstore/internal/tracing"
)

func usage() {
	fmt.Println("Usage: dmarcstore <command>")
	fmt.Println("Commands:")
	fmt.Println("  migrate      Upgrade the database schema to the latest version")
	fmt.Println("  version      Print the current database schema version")
	fmt.Println("  maintenance  Run the retention cron jobs")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}

	switch os.Args[1] {
	case "migrate":

		migrator := migration.NewMigrator(db, appLogger)
		if err := migrator.Upgrade(context.Background(), migration.LatestVersion); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		log.Println("Database migration completed successfully")

	case "version":

		migrator := migration.NewMigrator(db, appLogger)
		version, err := migrator.CurrentVersion(context.Background())
		if err != nil {
			log.Fatalf("Version lookup failed: %v", err)
		}
		if version == "" {
			fmt.Println("not initialized")
		} else {
			fmt.Println(version)
		}

	case "maintenance":

		tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
		if err != nil {
			log.Fatalf("Tracer setup failed: %v", err)
		}
		defer closer.Close()
		opentracing.SetGlobalTracer(tracer)

		repositories, err := repository.InitRepositories(db, cfg.Ingest.AllowedDomains, appLogger)
		if err != nil {
			log.Fatalf("Repository setup failed: %v", err)
		}

		cm := cron.NewCronManager(cfg, appLogger, repositories.ReportRepository, repositories.ReportLogRepository)
		if err := cm.Start(); err != nil {
			log.Fatalf("Cron startup failed: %v", err)
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		cm.Stop()
		log.Println("Shutdown complete")

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
