package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/waypoint/internal/cli"
	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCodeOf(err))
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewSQLiteUnitOfWork(database)

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}

	app := &cli.App{
		Reports:  service.NewReportService(uow, cfg.Settings, cfg.Workers, observers...),
		Import:   service.NewImportService(uow, observers...),
		HTTPAddr: cfg.HTTPAddr,
	}

	return cli.NewRootCmd(app).Execute()
}
