// Package app wires configuration, registries, journal and editor service
// for the front-end commands.
package app

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"rh-editor/internal/config"
	"rh-editor/internal/db"
	"rh-editor/internal/editor"
	"rh-editor/internal/plc"
	"rh-editor/internal/registry"
)

type App struct {
	Config  config.Config
	Service *editor.Service
	// Journal is nil when disabled in the configuration.
	Journal *db.DB
}

// LoadConfig reads .env (when present) and then the config file it or the
// environment selects. An explicit path wins over both.
func LoadConfig(path string) (config.Config, error) {
	_ = godotenv.Load()
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

// Open loads the registries and opens the journal. Missing registry files
// are logged and leave the editor read-only; malformed ones are errors.
func Open(cfg config.Config, dialer plc.Dialer, logger *log.Logger) (*App, error) {
	equips, err := registry.OpenEquipment(cfg.Files.Equipment, logger)
	if err != nil {
		return nil, err
	}
	ctrls, err := registry.OpenControllers(cfg.Files.Controllers, logger)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = plc.DefaultDialer
	}
	a := &App{Config: cfg}
	opts := editor.Options{
		Dialer:   plc.WithTimeout(dialer, cfg.PLC.Timeout),
		Logger:   logger,
		CacheTTL: cfg.CacheTTL,
	}
	if cfg.Journal.Enabled {
		j, err := db.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		a.Journal = j
		opts.Journal = j
	}
	a.Service = editor.New(equips, ctrls, opts)
	return a, nil
}

func (a *App) Close() error {
	if a.Journal == nil {
		return nil
	}
	return a.Journal.Close()
}
