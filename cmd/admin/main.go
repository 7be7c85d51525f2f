package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/storage"

	"github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [flags]

Commands:
  migrate          create or update the database tables
  token            issue a bearer token for a user (--user, --ttl)
  notifications    print the latest notifications (--limit)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "migrate":
		if err := openStorage(cfg).Migrate(); err != nil {
			log.Fatalf("Error running migrations: %v", err)
		}
		fmt.Println("Migrations complete.")
	case "token":
		if err := issueToken(cfg, args); err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
	case "notifications":
		if err := listNotifications(cfg, args); err != nil {
			log.Fatalf("Error listing notifications: %v", err)
		}
	default:
		fmt.Printf("Unknown command %q\n\n%s", command, usage)
		os.Exit(1)
	}
}

// openStorage connects without Redis; no admin command publishes.
func openStorage(cfg *config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return storage.NewStorageService(db, nil)
}

func issueToken(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("token", pflag.ContinueOnError)
	userID := flags.Uint("user", 0, "user id to put in the token subject")
	ttl := flags.Duration("ttl", cfg.TokenTTL, "token lifetime")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *userID == 0 {
		return fmt.Errorf("--user is required")
	}

	keys := auth.NewKeys(cfg.JWTSecret, cfg.JWTPreviousSecrets...)
	token, err := auth.NewIssuer(keys, *ttl).Issue(*userID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func listNotifications(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("notifications", pflag.ContinueOnError)
	limit := flags.IntP("limit", "n", 20, "how many notifications to print")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifications, err := openStorage(cfg).ListNotifications(ctx, *limit)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		recipient := "anonymous"
		if n.RecipientID != nil {
			recipient = fmt.Sprintf("user %d", *n.RecipientID)
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", n.ID, n.SentAt.Format(config.NotificationDateLayout), recipient, n.Message)
	}
	return nil
}
