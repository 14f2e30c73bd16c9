package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"eventdesk/internal/adapters/broker"
	emailPkg "eventdesk/internal/adapters/email"
	web "eventdesk/internal/adapters/http"
	"eventdesk/internal/adapters/http/perf"
	"eventdesk/internal/adapters/storage"
	attendanceStore "eventdesk/internal/adapters/storage/attendance"
	eventStore "eventdesk/internal/adapters/storage/event"
	pageStore "eventdesk/internal/adapters/storage/page"
	patronStore "eventdesk/internal/adapters/storage/patron"
	"eventdesk/internal/application/orchestrators"
	"eventdesk/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stderr))
	if cfg.CSRFKeyGenerated {
		log.Println("WARNING: using random CSRF key (forms won't survive restart). Set CHECKIN_CSRF_KEY or CHECKIN_CSRF_SECRET for production.")
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)
	defer timedDB.Close()

	if err := timedDB.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	stores := web.Stores{
		EventStore:      eventStore.NewSQLiteStore(timedDB),
		PatronStore:     patronStore.NewSQLiteStore(timedDB),
		AttendanceStore: attendanceStore.NewSQLiteStore(timedDB),
		PageStore:       pageStore.NewSQLiteStore(timedDB),
	}

	ctx := context.Background()
	if err := orchestrators.ExecuteSeedPages(ctx, orchestrators.SeedPagesDeps{PageStore: stores.PageStore}); err != nil {
		log.Fatalf("failed to seed pages: %v", err)
	}

	// Seed demo events and patrons for development only
	if !cfg.IsProduction() {
		demoDeps := orchestrators.SeedDemoDeps{
			EventStore:  stores.EventStore,
			PatronStore: stores.PatronStore,
			GenerateID:  generateID,
		}
		if err := orchestrators.ExecuteSeedDemo(ctx, demoDeps); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	services := web.Services{
		GenerateID: generateID,
		Now:        time.Now,
	}

	if cfg.ResendKey != "" {
		services.EmailSender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		log.Println("Email sender configured (Resend)")
	} else {
		services.EmailSender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Println("WARNING: CHECKIN_RESEND_KEY is not set. Check-in emails are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set CHECKIN_RESEND_KEY for real delivery)")
		}
	}

	if cfg.AMQPURL != "" {
		publisher := broker.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		defer publisher.Close()
		services.Publisher = publisher
		log.Printf("Attendance events published to AMQP queue %q", cfg.AMQPQueue)
	} else {
		services.Publisher = broker.NewNoopPublisher()
	}

	mux := web.NewMux(web.Config{
		CSRFKey:            cfg.CSRFKey,
		SecureCookies:      cfg.IsProduction(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequestMs:      cfg.SlowRequestMs,
		CheckinTimeout:     cfg.CheckinTimeout,
	}, stores, services, collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Event Desk %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}
