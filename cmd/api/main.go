package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/intelink/console/internal/config"
	"github.com/intelink/console/internal/database"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/server"
	"github.com/intelink/console/internal/services"
	"github.com/intelink/console/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	logger.Init(cfg.Debug, logger.RotatingWriter(cfg.LogDir, "intelink-console.log"))
	log := logger.Log()
	log.WithField("version", version.Full()).Infof("starting %s", version.Name)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}

	sweeper, err := services.NewSessionSweeper(db, cfg.SweepSchedule)
	if err != nil {
		log.WithError(err).Fatal("schedule session sweeper")
	}
	sweeper.Start()
	defer func() { <-sweeper.Stop().Done() }()

	srv, err := server.New(db, cfg)
	if err != nil {
		log.WithError(err).Fatal("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("port", cfg.HTTPPort).WithField("backend", cfg.BackendURL).Info("listening")
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
		return
	}
	log.Info("shut down cleanly")
}
