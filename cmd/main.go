package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"reel-deck/feed"
	"reel-deck/notifier"
	"reel-deck/scheduler"
	"reel-deck/server"
	"reel-deck/storage"
	"reel-deck/tmdb"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "./data"
	}

	// Initialize logger with timestamp
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Reel Deck application...")

	// Initialize storage
	sqliteStorage := storage.NewSQLiteStorage(dataPath)
	if err := sqliteStorage.Initialize(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer sqliteStorage.Close()

	// Initialize metadata client and feed fetcher
	tmdbClient, err := tmdb.NewClient(tmdb.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create metadata client: %v", err)
	}
	fetcher := feed.NewFetcher(tmdbClient)

	emailNotifier, err := notifier.NewEmailNotifier(notifier.GetEmailConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create email notifier: %v", err)
	}

	digestJob := scheduler.NewDigestJob(fetcher, sqliteStorage, emailNotifier)

	runMode := os.Getenv("RUN_MODE")

	switch runMode {
	case "server", "":
		log.Println("Starting in server mode")

		sched := scheduler.NewScheduler()
		if err := sched.AddWeeklyJob(digestJob); err != nil {
			log.Fatalf("Failed to schedule digest job: %v", err)
		}
		sched.Start()
		defer sched.Stop()

		displayDatabaseStats(sqliteStorage)

		addr := os.Getenv("LISTEN_ADDR")
		if addr == "" {
			addr = ":8080"
		}

		srv := server.New(sqliteStorage, fetcher)
		go func() {
			if err := srv.Start(addr); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		}()

		waitForShutdown()

	case "scheduler":
		log.Println("Starting in scheduler mode")

		sched := scheduler.NewScheduler()
		if err := sched.AddWeeklyJob(digestJob); err != nil {
			log.Fatalf("Failed to schedule digest job: %v", err)
		}
		sched.Start()
		log.Println("Scheduler started. Digest will be sent at 8:00 AM every Monday")

		if os.Getenv("RUN_AT_STARTUP") == "true" {
			log.Println("Running initial digest at startup")
			if err := sched.RunJobNow(digestJob.Name()); err != nil {
				log.Printf("Error running initial job: %v", err)
			}
		}

		displayDatabaseStats(sqliteStorage)
		waitForShutdown()
		sched.Stop()

	case "once":
		log.Println("Running in single execution mode")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := digestJob.Run(ctx); err != nil {
			log.Fatalf("Error running digest job: %v", err)
		}

		displayDatabaseStats(sqliteStorage)

	default:
		log.Fatalf("Unknown RUN_MODE %q (expected server, scheduler or once)", runMode)
	}

	log.Println("Application exiting")
}

// waitForShutdown blocks until SIGINT or SIGTERM
func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("Application running. Press Ctrl+C to exit")

	sig := <-quit
	log.Printf("Received signal %s, shutting down...", sig)
}

// displayDatabaseStats shows database statistics
func displayDatabaseStats(db *storage.SQLiteStorage) {
	stats, err := db.GetStats()
	if err != nil {
		log.Printf("Error getting database stats: %v", err)
		return
	}

	log.Println("Database Statistics")
	log.Printf("Watchlists: %d", stats["watchlists"])
	log.Printf("Watchlist items: %d", stats["items"])
	log.Printf("Groups: %d", stats["groups"])
	log.Printf("Watch events: %d", stats["watch_events"])
}
