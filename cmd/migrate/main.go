package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	"github.com/Apurer/farmasync/internal/platform/migrations"
)

// Applies or rolls back the embedded schema: migrate [up|down|version] [-steps N].
func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 rolls back everything)")
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}
	m, err := migrations.New(dsn)
	if err != nil {
		log.Fatalf("failed to open migrator: %v", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Printf("no migration applied")
			return
		}
		if verr != nil {
			log.Fatalf("failed to read version: %v", verr)
		}
		log.Printf("version %d (dirty=%t)", version, dirty)
		return
	default:
		log.Fatalf("unknown command %q, expected up, down or version", command)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration %s failed: %v", command, err)
	}
	log.Printf("migration %s completed", command)
}
