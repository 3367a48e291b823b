package models

import "time"

// QueryLog records one processed document-QA request for bookkeeping.
// It is written best-effort after the pipeline finishes; a write failure
// never affects the response to the caller.
type QueryLog struct {
	ID            uint   `gorm:"primaryKey"`
	SessionID     string `gorm:"index;not null;size:64"`  // vector index session id (request UUID)
	DocumentURL   string `gorm:"not null;size:2048"`      // source document URL
	QuestionCount int    `gorm:"not null"`                // number of questions in the request
	Status        string `gorm:"not null;size:32"`        // "success", "partial", "failed"
	DurationMs    int64  `gorm:"not null"`                // total processing time
	ErrorMessage  string `gorm:"size:1024"`               // fatal error text, empty on success
	CreatedAt     time.Time
}
