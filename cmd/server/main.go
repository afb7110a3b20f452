package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/internal/backup"
	"github.com/diewo77/go-assets/internal/config"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/ids"
	"github.com/diewo77/go-assets/internal/obs"
	"github.com/diewo77/go-assets/internal/policy"
	"github.com/diewo77/go-assets/internal/services"
	"github.com/diewo77/go-assets/internal/storage"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	gw, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer gw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnlyFlag {
		if err := migrate(ctx, gw, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := seed(ctx, gw, cfg); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	// The schema must exist before anything else touches the database.
	if err := migrate(ctx, gw, cfg); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := seed(ctx, gw, cfg); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	obs.Init()

	assetStore := store.NewAssetStore(gw)
	userStore := store.NewUserStore(gw)
	authGate := policy.NewAuthGate(userStore, cfg.App.ProfileCacheTTL)

	var backups *backup.Manager
	if gw.Path() != "" {
		backups, err = backup.NewManager(gw, backup.Options{
			Dir:           cfg.Backup.Dir,
			RetentionDays: cfg.Backup.RetentionDays,
			Replicator:    replicator(ctx, cfg.Storage),
		})
		if err != nil {
			log.Fatalf("Backup manager: %v", err)
		}
	} else {
		log.Printf("[Backup] disabled: %s is not a sqlite file", cfg.Database.Redacted())
	}

	users := services.NewUserService(userStore, authGate)
	svc := Services{
		Assets:   services.NewAssetService(assetStore, authGate),
		Users:    users,
		Backups:  services.NewBackupService(backups, userStore, authGate),
		Reports:  services.NewReportService(assetStore, authGate, cfg.App.ReportsDir),
		Gate:     authGate,
		Sessions: auth.NewSessions(cfg.App.SessionSecret, cfg.App.SessionTTL, userExists(userStore)),
	}

	if ran, err := runCommand(ctx, svc); ran {
		if err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if backups != nil && cfg.Backup.Schedule {
		sched := backup.NewScheduler(func(ctx context.Context) error {
			_, err := backups.CreateBackup(ctx)
			return err
		})
		if _, err := sched.Start(ctx, cfg.Backup.Time); err != nil {
			log.Fatalf("Backup schedule: %v", err)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(NewApp(svc)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// migrate applies the embedded SQL migrations when MIGRATIONS=1 and the
// database is a sqlite file, and gorm AutoMigrate otherwise.
func migrate(ctx context.Context, gw *db.Gateway, cfg *config.Config) error {
	return gw.Do(ctx, func(tx *gorm.DB) error {
		if cfg.App.Migrations && gw.Path() != "" {
			return db.MigrateSQL(tx, gw.Path())
		}
		return db.Migrate(tx)
	})
}

func seed(ctx context.Context, gw *db.Gateway, cfg *config.Config) error {
	return gw.Do(ctx, func(tx *gorm.DB) error {
		return db.Seed(tx, cfg.App.AdminDefaultPassword)
	})
}

// userExists rejects sessions of deleted accounts.
func userExists(users *store.UserStore) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		u, err := users.GetByID(ctx, uid)
		return err == nil && u != nil
	}
}

// replicator returns nil unless an object store is configured and reachable.
func replicator(ctx context.Context, cfg config.StorageConfig) backup.Replicator {
	if !cfg.Enabled() {
		return nil
	}
	client, err := storage.NewMinioClient(ctx, storage.MinioConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		UseSSL:          cfg.UseSSL,
		BucketName:      cfg.Bucket,
		Region:          cfg.Region,
	})
	if err != nil {
		log.Printf("[Backup] replication disabled: %v", err)
		return nil
	}
	return storage.NewReplicator(client, "snapshots")
}

// withLogging adds request logging middleware. Every request gets an
// X-Request-ID, reusing the caller's when present.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = ids.RequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		sw := &obs.StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %s id=%s", r.Method, r.URL.Path, sw.Code, time.Since(start), reqID)
	})
}
