// Command plcctl reads, writes and lists the write history of one
// equipment counter without the terminal UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"rh-editor/internal/app"
	"rh-editor/internal/hours"
	"rh-editor/internal/plc"
	"rh-editor/internal/registry"
)

const usage = `usage: plcctl [flags] read <equipment>
       plcctl [flags] write <equipment> <hours>
       plcctl [flags] history <equipment> [limit]
       plcctl [flags] list [filter]`

var (
	errUsage       = errors.New("usage")
	errUnconfirmed = errors.New("write not confirmed")
)

func main() {
	var configPath string
	var verbose bool
	flag.StringVar(&configPath, "config", "", "path to YAML config (default $RHEDITOR_CONFIG or rheditor.yaml)")
	flag.BoolVar(&verbose, "v", false, "log PLC steps to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	err := run(configPath, verbose, flag.Args(), plc.DefaultDialer)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		flag.Usage()
		os.Exit(2)
	case errors.Is(err, errUnconfirmed):
		fmt.Printf("warning: %v\n", err)
		os.Exit(3)
	default:
		log.Fatal(err)
	}
}

func run(configPath string, verbose bool, args []string, dialer plc.Dialer) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	a, err := app.Open(cfg, dialer, log.New(out, "", log.LstdFlags))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case args[0] == "read" && len(args) == 2:
		r, err := a.Service.Read(ctx, args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}
		fmt.Printf("%s %s = %d s (%s h)\n", r.Equipment.Name, r.Equipment.Address(), r.Seconds, r.HoursText())

	case args[0] == "write" && len(args) == 3:
		res, err := a.Service.Write(ctx, args[1], args[2])
		if err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		fmt.Printf("%s %s <- %d s (%s h)\n", res.Equipment.Name, res.Equipment.Address(), res.Seconds, hours.Format(res.Hours))
		if res.ConfirmErr != nil {
			return fmt.Errorf("%w: %v", errUnconfirmed, res.ConfirmErr)
		}
		fmt.Printf("confirmed %s h\n", res.Confirmed.HoursText())

	case args[0] == "history" && (len(args) == 2 || len(args) == 3):
		if a.Journal == nil {
			return errors.New("journal disabled in configuration")
		}
		limit := 20
		if len(args) == 3 {
			if _, err := fmt.Sscanf(args[2], "%d", &limit); err != nil {
				return fmt.Errorf("bad limit %q", args[2])
			}
		}
		rows, err := a.Journal.History(ctx, args[1], limit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		for _, r := range rows {
			confirmed := "-"
			if r.ConfirmedSeconds != nil {
				confirmed = fmt.Sprintf("%d", *r.ConfirmedSeconds)
			}
			fmt.Printf("%s  %-11s %10s h %10d s  confirmed %s  %s\n",
				r.CreatedAt.Format(time.RFC3339), r.Status, hours.Format(r.Hours), r.Seconds, confirmed, r.Error)
		}
		sums, err := a.Journal.Summaries(ctx, args[1])
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		for _, s := range sums {
			fmt.Printf("%s: %d\n", s.Status, s.Count)
		}

	case args[0] == "list" && len(args) <= 2:
		filter := ""
		if len(args) == 2 {
			filter = args[1]
		}
		for _, e := range a.Service.Equipment().Filter(a.Service.Controllers(), registry.Query{Text: filter}) {
			addr, rack, slot := a.Service.Controllers().ConnectionParams(e.Controller)
			fmt.Printf("%-40s %-6s %-14s %s rack=%d slot=%d\n", e.Name, e.Controller, e.Address(), addr, rack, slot)
		}

	default:
		return errUsage
	}
	return nil
}
