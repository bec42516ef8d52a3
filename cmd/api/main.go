package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"emhana.org/internal/auth"
	"emhana.org/internal/httpapi"
	"emhana.org/internal/notify"
	"emhana.org/internal/obs"
	"emhana.org/internal/otp"
)

var version = "0.3.1"

// config is built once at startup and passed by reference into each
// component; there is no global mutable configuration.
type config struct {
	Addr        string
	DSN         string
	TokenSecret string
	TokenTTL    time.Duration
	OTPSecret   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func loadConfig() config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config{
		Addr:        envOr("EMHANA_ADDR", ":8080"),
		DSN:         os.Getenv("EMHANA_PG_DSN"),
		TokenSecret: os.Getenv("EMHANA_JWT_SECRET"),
		TokenTTL:    24 * time.Hour,
		OTPSecret:   os.Getenv("EMHANA_OTP_SECRET"),
		SMTPHost:    os.Getenv("EMHANA_SMTP_HOST"),
		SMTPPort:    587,
		SMTPUser:    os.Getenv("EMHANA_SMTP_USER"),
		SMTPPass:    os.Getenv("EMHANA_SMTP_PASS"),
		MailFrom:    envOr("EMHANA_MAIL_FROM", "no-reply@emhana.org"),
	}
	if raw := os.Getenv("EMHANA_JWT_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			cfg.TokenTTL = ttl
		}
	}
	if raw := os.Getenv("EMHANA_SMTP_PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 {
			cfg.SMTPPort = port
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, envOr("EMHANA_COMMIT", "unknown"))

	cfg := loadConfig()
	if cfg.TokenSecret == "" {
		log.Fatal("EMHANA_JWT_SECRET is required")
	}
	if cfg.OTPSecret == "" {
		log.Fatal("EMHANA_OTP_SECRET is required")
	}

	var (
		db        *sql.DB
		userStore auth.UserStore
		otpStore  otp.Store
	)
	if cfg.DSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		userStore = auth.NewPGUserStore(db)
		otpStore = otp.NewPGStore(db)
	} else {
		log.Println("EMHANA_PG_DSN is not set, using in-memory stores (dev only)")
		userStore = auth.NewMemoryUserStore()
		otpStore = otp.NewMemoryStore()
	}

	var notifier notify.Notifier
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		log.Println("EMHANA_SMTP_HOST is not set, outbound mail is disabled")
	}
	dispatcher := notify.NewDispatcher(notifier)

	issuer, err := auth.NewIssuer(cfg.TokenSecret, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc := auth.NewService(userStore, issuer, dispatcher)

	otpEngine, err := otp.NewEngine(otpStore, dispatcher, cfg.OTPSecret)
	if err != nil {
		log.Fatalf("otp engine: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, otpEngine)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting emhana-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	dispatcher.Wait()
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
