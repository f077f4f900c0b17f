package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"rh-editor/internal/app"
	"rh-editor/internal/plc"
	"rh-editor/internal/tui"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config (default $RHEDITOR_CONFIG or rheditor.yaml)")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logs := tui.NewLogBuffer(500)
	logger := log.New(io.MultiWriter(logFile, logs), "", log.LstdFlags)

	a, err := app.Open(cfg, plc.DefaultDialer, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(tui.NewModel(a.Service, logs, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
