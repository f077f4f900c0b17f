// Package db keeps the journal of counter writes in SQLite.
package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"rh-editor/internal/model"
)

// DB wraps the journal connection.
type DB struct {
	ORM *gorm.DB
}

// Open opens the SQLite database using GORM and runs migrations.
func Open(path string) (*DB, error) {
	g, err := openORM(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := migrateORM(g); err != nil {
		_ = closeORM(g)
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &DB{ORM: g}, nil
}

func (d *DB) Close() error { return closeORM(d.ORM) }

// SaveWrite inserts one write attempt.
func (d *DB) SaveWrite(ctx context.Context, rec *model.WriteRecord) error {
	return insertWriteRecord(ctx, d.ORM, rec)
}

// History returns the write attempts of an equipment, newest first. An
// empty name selects every equipment; limit <= 0 returns all rows.
func (d *DB) History(ctx context.Context, name string, limit int) ([]model.WriteRecord, error) {
	q := d.ORM.WithContext(ctx).Order("created_at DESC, id DESC")
	if name != "" {
		q = q.Where("equipment = ?", name)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.WriteRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary is the per-status count of journaled writes.
type Summary struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Summaries counts write attempts by status for an equipment (all when
// name is empty).
func (d *DB) Summaries(ctx context.Context, name string) ([]Summary, error) {
	q := d.ORM.WithContext(ctx).Model(&model.WriteRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status")
	if name != "" {
		q = q.Where("equipment = ?", name)
	}
	var out []Summary
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
