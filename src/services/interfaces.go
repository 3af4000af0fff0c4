package services

import (
	"errors"

	"github.com/username/slipfolio/src/models"
)

var (
	ErrRecordNotFound   = errors.New("entry record not found")
	ErrMachineNotFound  = errors.New("machine not found")
	ErrNotRecordOwner   = errors.New("entry record belongs to another user")
	ErrNotMachineOwner  = errors.New("machine belongs to another user")
	ErrInvalidEntryDate = errors.New("entry date must be YYYY-MM-DD")
)

// MachineBalance is the answer to "where does machine M stand on date D".
type MachineBalance struct {
	MachineID      string  `json:"machineId"`
	Date           string  `json:"date"`
	OpeningBalance float64 `json:"openingBalance"`
	ClosingBalance float64 `json:"closingBalance"`
	Difference     float64 `json:"difference"`
	HasEntry       bool    `json:"hasEntry"`
}

// UpsertResult reports what a record submission did: an empty submission
// deletes the stored row instead of keeping a zero line.
type UpsertResult struct {
	Record  *models.EntryRecord `json:"record,omitempty"`
	Deleted bool                `json:"deleted"`
}

// ReportService owns the entry-record lifecycle and every derived view.
// All balances and summaries are recomputed from the raw record history on
// demand; mutations invalidate the report cache and the balance memo so the
// next request rebuilds from the current database state.
type ReportService interface {
	UpsertRecord(userID int64, rec models.EntryRecord) (*UpsertResult, error)
	DeleteRecord(userID int64, recordID string) error
	GetRecords(userID int64, machineID, from, to string) ([]models.EntryRecord, error)

	GetDailySummary(userID int64, date string) (*models.DayGroup, error)
	GetRangeReport(userID int64, from, to string, machineIDs []string) (*models.RangeReport, error)
	GetChartSeries(userID int64, days int) ([]models.ChartPoint, error)
	GetMachineBalance(userID int64, machineID, date string) (*MachineBalance, error)

	InvalidateUserCache(userID int64)
}

// EmailService delivers account emails.
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
	SendPasswordResetEmail(toEmail, username, token string) error
}
