package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/intelink/console/internal/config"
	"github.com/intelink/console/internal/database"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/services"
)

func main() {
	dbPath := flag.String("db", "", "database path (defaults to INTELINK_DB_PATH)")
	flag.Parse()

	logger.Init(false, os.Stdout)
	log := logger.Log()

	path := *dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		path = cfg.DatabasePath
	}

	db, err := database.Connect(path)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	fmt.Println("✓ Database migrated successfully")

	svc := services.NewAccessPresetService(db)
	existing, err := svc.List()
	if err != nil {
		log.WithError(err).Fatal("list presets")
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}

	for _, t := range svc.Templates() {
		if names[t.Name] {
			fmt.Printf("  Preset already exists: %s\n", t.Name)
			continue
		}
		p, err := svc.CreateFromTemplate(t.ID, "")
		if err != nil {
			if errors.Is(err, services.ErrPresetEmpty) {
				continue
			}
			log.WithError(err).WithField("template", t.ID).Error("failed to seed preset")
			continue
		}
		fmt.Printf("✓ Created preset: %s (%s)\n", p.Name, p.Mode)
	}

	fmt.Println("\n✓ Database seeded successfully!")
}
