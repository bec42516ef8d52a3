package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"emhana.org/internal/auth"
	"emhana.org/internal/migrate"
)

const usage = `usage: migrate <command> [flags]

commands:
  up           apply all pending migrations
  down         roll back the most recent migration
  status       list applied migrations
  seed         apply seed files
  seed-admin   create or reset an administrator account
`

func main() {
	_ = godotenv.Load()

	migrationsDir := flag.String("migrations", "ops/migrations/sql", "directory with .up.sql/.down.sql files")
	seedsDir := flag.String("seeds", "ops/migrations/seeds", "directory with seed .sql files")
	dsn := flag.String("dsn", os.Getenv("EMHANA_PG_DSN"), "postgres connection string")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *dsn == "" {
		log.Fatal("database DSN is required (-dsn or EMHANA_PG_DSN)")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	mgr := migrate.NewManager(db, *migrationsDir, *seedsDir)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := mgr.Up(ctx); err != nil {
			log.Fatalf("up: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := mgr.Down(ctx); err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Println("last migration rolled back")
	case "status":
		applied, err := mgr.Status(ctx)
		if err != nil {
			log.Fatalf("status: %v", err)
		}
		if len(applied) == 0 {
			log.Println("no migrations applied")
			return
		}
		for _, name := range applied {
			fmt.Println(name)
		}
	case "seed":
		if err := mgr.Seed(ctx); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Println("seeds applied")
	case "seed-admin":
		if err := seedAdmin(ctx, db, flag.Args()[1:]); err != nil {
			log.Fatalf("seed-admin: %v", err)
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

// seedAdmin provisions an administrator account. Static SQL seeds cannot
// carry a usable password hash, so the hash is computed here at run time.
func seedAdmin(ctx context.Context, db *sql.DB, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	email := fs.String("email", os.Getenv("EMHANA_ADMIN_EMAIL"), "administrator email")
	password := fs.String("password", os.Getenv("EMHANA_ADMIN_PASSWORD"), "administrator password")
	firstName := fs.String("first-name", "System", "administrator first name")
	lastName := fs.String("last-name", "Administrator", "administrator last name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required (flags or EMHANA_ADMIN_EMAIL/EMHANA_ADMIN_PASSWORD)")
	}
	if len(*password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	store := auth.NewPGUserStore(db)
	normalized := auth.NormalizeEmail(*email)

	existing, err := store.FindByEmail(ctx, normalized)
	switch {
	case err == nil:
		if err := store.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return err
		}
		log.Printf("password reset for administrator %s", normalized)
	case errors.Is(err, auth.ErrNotFound):
		user := &auth.User{
			FirstName:    *firstName,
			LastName:     *lastName,
			CitizenID:    "00000000000",
			Phone:        "0000000000",
			Email:        normalized,
			PasswordHash: hash,
			Role:         auth.RoleAdmin,
			IsActive:     true,
		}
		if err := store.Create(ctx, user); err != nil {
			return err
		}
		log.Printf("administrator %s created", normalized)
	default:
		return err
	}
	return nil
}
