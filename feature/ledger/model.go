package ledger

import "time"

// ScanRun is one scan attempt recorded in the ledger.
type ScanRun struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RunID       string    `gorm:"index;size:36" json:"run_id"`
	Scan        string    `gorm:"index;size:255" json:"scan"`
	Dataset     string    `gorm:"size:255" json:"dataset"`
	Device      int       `json:"device"`
	Method      string    `gorm:"size:16" json:"method"`
	Status      string    `gorm:"size:32" json:"status"`
	LastStage   string    `gorm:"size:32" json:"last_stage"`
	ResumedFrom string    `gorm:"size:32" json:"resumed_from,omitempty"`
	FailedStage string    `gorm:"size:32" json:"failed_stage,omitempty"`
	ErrorKind   string    `gorm:"size:64" json:"error_kind,omitempty"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	Warnings    int       `json:"warnings"`
	DurationMs  int64     `json:"duration_ms"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `gorm:"index" json:"finished_at"`
}

// TableName returns the ledger table name.
func (ScanRun) TableName() string {
	return "disc3d_scan_runs"
}
