package store

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
)

// OutboundCall links a placed call to the customer it targets, so the
// stream handler can greet by name when the vendor connects.
type OutboundCall struct {
	CallSid    string `gorm:"primaryKey;size:255"`
	CustomerID uint   `gorm:"index"`
}

// Open opens the SQLite database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Customer{}, &SurveyResponse{}, &SessionRecord{}, &OutboundCall{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// Store wraps the database with the queries the service needs.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// CreateCustomer inserts one dialing-list row.
func (s *Store) CreateCustomer(c *Customer) error {
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// Customers lists the dialing list.
func (s *Store) Customers() ([]Customer, error) {
	var out []Customer
	if err := s.db.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// CustomerByID fetches one customer.
func (s *Store) CustomerByID(id uint) (*Customer, error) {
	var c Customer
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("customer %d: %w", id, err)
	}
	return &c, nil
}

// RegisterCall records which customer an outbound call targets.
func (s *Store) RegisterCall(callSid string, customerID uint) error {
	rec := OutboundCall{CallSid: callSid, CustomerID: customerID}
	if err := s.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("register call %s: %w", callSid, err)
	}
	return nil
}

// CustomerName implements the bridge's name resolver: callSid to the
// targeted customer's name.
func (s *Store) CustomerName(callSid string) (string, bool) {
	var call OutboundCall
	if err := s.db.First(&call, "call_sid = ?", callSid).Error; err != nil {
		return "", false
	}
	var c Customer
	if err := s.db.First(&c, call.CustomerID).Error; err != nil {
		return "", false
	}
	return c.Name, c.Name != ""
}

// SaveSnapshot upserts the session record and replaces its answer
// rows in one transaction.
func (s *Store) SaveSnapshot(rec SessionRecord, responses []SurveyResponse) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", rec.SessionID).Delete(&SurveyResponse{}).Error; err != nil {
			return err
		}
		if len(responses) == 0 {
			return nil
		}
		return tx.Create(&responses).Error
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	return nil
}

// Summary loads the session record and its answers for the summary
// endpoint.
func (s *Store) Summary(sessionID string) (*SessionRecord, []SurveyResponse, error) {
	var rec SessionRecord
	if err := s.db.First(&rec, "session_id = ?", sessionID).Error; err != nil {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	var responses []SurveyResponse
	if err := s.db.Where("session_id = ?", sessionID).Order("id").Find(&responses).Error; err != nil {
		return nil, nil, fmt.Errorf("responses %s: %w", sessionID, err)
	}
	return &rec, responses, nil
}

// Snapshot turns live flow state into persistable rows. Empty answers
// are omitted; a question not yet reached has no row.
func Snapshot(callSid string, fs *flow.Session) (SessionRecord, []SurveyResponse) {
	rec := SessionRecord{
		SessionID:       fs.ID,
		CallSid:         callSid,
		CustomerName:    fs.CustomerName,
		CurrentQuestion: fs.CurrentQuestion,
		RetryCount:      fs.RetryCount,
		Completed:       fs.CallShouldEnd,
		EndReason:       fs.CallEndReason,
	}
	answers := []struct {
		question string
		value    string
	}{
		{"identity", fs.IdentityConfirmation},
		{"availability", fs.Availability},
		{"alternate_contact", fs.AlternateContact},
		{"loan_taken", fs.LoanTaken},
		{"emi_payment", fs.LastMonthPayment},
		{"payee", fs.Payee},
		{"payee_name", fs.PayeeName},
		{"payee_contact", fs.PayeeContact},
		{"payment_date", fs.PaymentDate},
		{"payment_mode", fs.PaymentMode},
		{"executive_name", fs.ExecutiveName},
		{"executive_contact", fs.ExecutiveContact},
		{"payment_reason", fs.PaymentReason},
		{"amount", fs.PaymentAmount},
	}
	var rows []SurveyResponse
	for _, a := range answers {
		if a.value == "" {
			continue
		}
		rows = append(rows, SurveyResponse{
			SessionID: fs.ID,
			CallSid:   callSid,
			Question:  a.question,
			Answer:    a.value,
		})
	}
	return rec, rows
}
