package model

import "time"

// Write outcomes recorded in the journal.
const (
	WriteOK          = "ok"
	WriteFailed      = "failed"
	WriteUnconfirmed = "unconfirmed"
)

// WriteRecord is one journaled write attempt.
// Table: write_records
type WriteRecord struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Equipment        string    `gorm:"column:equipment;index" json:"equipment"`
	Controller       string    `gorm:"column:controller" json:"controller"`
	Address          string    `gorm:"column:address" json:"address"`
	DBNumber         int       `gorm:"column:db_number" json:"db_number"`
	DBOffset         int       `gorm:"column:db_offset" json:"db_offset"`
	Hours            float64   `gorm:"column:hours" json:"hours"`
	Seconds          int64     `gorm:"column:seconds" json:"seconds"`
	ConfirmedSeconds *int64    `gorm:"column:confirmed_seconds" json:"confirmed_seconds,omitempty"`
	Status           string    `gorm:"column:status" json:"status"`
	Error            string    `gorm:"column:error" json:"error,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (WriteRecord) TableName() string { return "write_records" }
