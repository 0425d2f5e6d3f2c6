package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"library-system/library"
)

// seed is a tiny starter catalog so a fresh database has something to lend.
var seed = []struct {
	title  string
	author string
	year   int
}{
	{"1984", "George Orwell", 1949},
	{"Animal Farm", "George Orwell", 1945},
	{"Dune", "Frank Herbert", 1965},
	{"The Art of War", "Sun Tzu", -500},
	{"The Fellowship of the Ring", "J.R.R. Tolkien", 1954},
	{"Romeo and Juliet", "William Shakespeare", 1597},
	{"The Three Musketeers", "Alexandre Dumas", 1844},
	{"Don Quixote", "Miguel de Cervantes", 1605},
}

func main() {
	_ = godotenv.Load()

	cfg := library.ConfigFromEnv()
	logger, err := library.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := library.OpenStore(cfg, logger.Sugar())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	books := library.NewBookRegistry(store)

	fmt.Println("Seeding catalog...")
	successCount := 0
	errorCount := 0
	for _, b := range seed {
		fmt.Printf("Adding: %s by %s... ", b.title, b.author)
		id, err := books.Create(ctx, b.title, b.author, b.year)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", id)
		successCount++
	}

	// Optionally create an admin account when SEED_ADMIN_PASSWORD is set.
	if pw := os.Getenv("SEED_ADMIN_PASSWORD"); pw != "" {
		users := library.NewUserRegistry(store, nil)
		name := os.Getenv("SEED_ADMIN_NAME")
		if name == "" {
			name = "admin"
		}
		if id, err := users.Create(ctx, name, "admin", pw); err != nil {
			fmt.Printf("Admin user: ERROR - %v\n", err)
			errorCount++
		} else {
			fmt.Printf("Admin user '%s' created (ID: %d)\n", name, id)
		}
	}

	fmt.Printf("\nSeed complete!\n")
	fmt.Printf("Successfully added: %d\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
