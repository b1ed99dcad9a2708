package model

import (
	"time"
)

// Import run statuses
const (
	ImportPending    = "pending"
	ImportIngesting  = "ingesting"
	ImportValidating = "validating"
	ImportStoring    = "storing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// ImportRun is the catalog row of one import pipeline run
type ImportRun struct {
	ID        string     `json:"id"`
	Spec      ImportSpec `json:"spec"`
	Status    string     `json:"status"`
	Rows      int64      `json:"rows"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ImportError is one error recorded against an import run
type ImportError struct {
	ID        int64     `json:"id"`
	ImportID  string    `json:"import_id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportStats summarises what a run produced
type ImportStats struct {
	Ingested     int64         `json:"ingested"`
	Valid        int64         `json:"valid"`
	Invalid      int64         `json:"invalid"`
	Observations int64         `json:"observations"`
	Facilities   int64         `json:"facilities"`
	Duration     time.Duration `json:"duration"`
}
