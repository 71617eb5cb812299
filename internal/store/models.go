// Package store persists customers, survey answers and per-call
// session state in SQLite through gorm.
package store

import "time"

// Customer is one row of the dialing list.
type Customer struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	AgreementNo   string `gorm:"size:255;index"`
	Name          string `gorm:"size:255"`
	ContactNumber string `gorm:"size:50"`
	Branch        string `gorm:"size:255"`
	Zone          string `gorm:"size:255"`
	Product       string `gorm:"size:255"`
	State         string `gorm:"size:255"`
	EMI           float64
	CreatedAt     time.Time
}

// SurveyResponse is one extracted answer for one question of a call.
type SurveyResponse struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:255;index"`
	CallSid   string `gorm:"size:255"`
	Question  string `gorm:"size:255"`
	Answer    string `gorm:"size:1024"`
	CreatedAt time.Time
}

// SessionRecord is the flow state snapshot saved after every
// transition and finalized at teardown.
type SessionRecord struct {
	SessionID       string `gorm:"primaryKey;size:255"`
	CallSid         string `gorm:"size:255;index"`
	CustomerName    string `gorm:"size:255"`
	CurrentQuestion int
	RetryCount      int
	Completed       bool
	EndReason       string `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
