// Package domain defines the persistence models for the ledger cells, the
// interaction log, and processed webhook deliveries. These types are mapped
// with GORM and form the data layer shared by the repo and service packages.
package domain

import "time"

// Cell is a single spreadsheet cell of a ledger book. A book is identified
// by its store id; each (book, sheet, row, col) is unique. Rows and columns
// are 1-based, matching A1 notation.
type Cell struct {
	ID        uint      `json:"-"     gorm:"primaryKey;autoIncrement"`
	Book      string    `json:"book"  gorm:"type:varchar(128);not null;uniqueIndex:ux_cell_pos,priority:1"`
	Sheet     string    `json:"sheet" gorm:"type:varchar(128);not null;uniqueIndex:ux_cell_pos,priority:2"`
	Row       int       `json:"row"   gorm:"column:row_num;not null;uniqueIndex:ux_cell_pos,priority:3"`
	Col       int       `json:"col"   gorm:"column:col_num;not null;uniqueIndex:ux_cell_pos,priority:4"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Cell.
func (Cell) TableName() string { return "cells" }

// Interaction outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

// Interaction records one handled inbound message and the reply produced
// for it.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: sender id (indexed with CreatedAt for per-user listing).
//   - Kind: command kind that was applied ("add", "sold", "bulk_update", ...).
//   - Request / Reply: inbound text and the reply that was sent.
//   - Outcome: one of OutcomeOK, OutcomeNotFound, OutcomeInvalid, OutcomeFailed.
//   - Delivered: whether the reply reached the Send API successfully.
type Interaction struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_interactions,priority:1"`
	Kind      string    `json:"kind"       gorm:"type:varchar(32);not null"`
	Request   string    `json:"request"    gorm:"type:text;not null"`
	Reply     string    `json:"reply"      gorm:"type:text;not null"`
	Outcome   string    `json:"outcome"    gorm:"type:varchar(16);not null;check:outcome IN ('ok','not_found','invalid','failed')"`
	Delivered bool      `json:"delivered"  gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_user_interactions,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }

// ProcessedEvent remembers a webhook message id so that redelivered events
// are applied at most once within the retention window.
type ProcessedEvent struct {
	MID       string    `gorm:"column:mid;type:varchar(255);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ProcessedEvent) TableName() string { return "processed_events" }
