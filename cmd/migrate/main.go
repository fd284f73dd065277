package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sitecraft/config"
	"sitecraft/database"
	"time"

	"github.com/jackc/pgx/v5"
)

func main() {
	seedUser := flag.String("seed-user", "", "create a user with this name and print its API key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect:", err)
	}
	defer conn.Close(context.Background())

	names, err := database.MigrationNames()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Running %d migrations", len(names))

	if err := database.RunMigrations(ctx, conn); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nAll migrations completed!")

	if *seedUser == "" {
		return
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect:", err)
	}
	defer db.Close()

	user, err := db.CreateUser(ctx, *seedUser, cfg.NewUserCredits)
	if err != nil {
		log.Fatal("Failed to create user:", err)
	}

	fmt.Printf("\nUser %s created with %d credits\n", user.Name, user.Credits)
	fmt.Printf("API key: %s\n", user.APIKey)
}
