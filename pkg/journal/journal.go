// Package journal is the public read API of the write journal kept by the
// editor, for reporting tools outside this module.
package journal

import (
	"context"
	"time"

	dbpkg "rh-editor/internal/db"
	"rh-editor/internal/model"
)

// Client reads the journal database.
type Client struct{ db *dbpkg.DB }

// Open opens the SQLite journal (creating the schema when new).
func Open(path string) (*Client, error) {
	d, err := dbpkg.Open(path)
	if err != nil {
		return nil, err
	}
	return &Client{db: d}, nil
}

func (c *Client) Close() error { return c.db.Close() }

// Entry is one write attempt.
type Entry struct {
	Equipment        string    `json:"equipment"`
	Controller       string    `json:"controller"`
	Address          string    `json:"address"`
	Hours            float64   `json:"hours"`
	Seconds          int64     `json:"seconds"`
	ConfirmedSeconds *int64    `json:"confirmed_seconds,omitempty"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	At               time.Time `json:"at"`
}

// Confirmed reports whether the controller returned the written value.
func (e Entry) Confirmed() bool {
	return e.ConfirmedSeconds != nil && *e.ConfirmedSeconds == e.Seconds
}

func fromRecord(r model.WriteRecord) Entry {
	return Entry{
		Equipment:        r.Equipment,
		Controller:       r.Controller,
		Address:          r.Address,
		Hours:            r.Hours,
		Seconds:          r.Seconds,
		ConfirmedSeconds: r.ConfirmedSeconds,
		Status:           r.Status,
		Error:            r.Error,
		At:               r.CreatedAt,
	}
}

// History lists write attempts, newest first. Empty equipment means all;
// limit <= 0 means no limit.
func (c *Client) History(ctx context.Context, equipment string, limit int) ([]Entry, error) {
	rows, err := c.db.History(ctx, equipment, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRecord(r))
	}
	return out, nil
}

// Report aggregates the journal of one equipment (or all).
type Report struct {
	Equipment string           `json:"equipment,omitempty"`
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	Latest    []Entry          `json:"latest"`
}

// Report returns per-status counts and the latest limit entries.
func (c *Client) Report(ctx context.Context, equipment string, limit int) (Report, error) {
	rep := Report{Equipment: equipment, ByStatus: map[string]int64{}}
	sums, err := c.db.Summaries(ctx, equipment)
	if err != nil {
		return rep, err
	}
	for _, s := range sums {
		rep.ByStatus[s.Status] = s.Count
		rep.Total += s.Count
	}
	rep.Latest, err = c.History(ctx, equipment, limit)
	return rep, err
}
