// Package flow drives the fixed survey question sequence for one
// call: question pointer, retry counter and end-of-call latching.
package flow

// Session is the typed per-call survey state. One instance per call,
// owned by the flow worker; all transitions are strictly sequential.
type Session struct {
	ID           string
	CustomerName string

	// Extracted answers.
	IdentityConfirmation string // YES/NO/REFUSE/...
	Availability         string
	AlternateContact     string
	LoanTaken            string
	LastMonthPayment     string
	Payee                string // self/family/friend/third_party
	PayeeName            string
	PayeeContact         string
	PaymentDate          string
	PaymentMode          string // online_lan/online_field_executive/cash/branch/outlet/nach
	ExecutiveName        string
	ExecutiveContact     string
	PaymentReason        string
	PaymentAmount        string

	// Flow control.
	CurrentQuestion int
	RetryCount      int
	CallShouldEnd   bool
	CallEndReason   string
	ClosingMessage  string
}

// NewSession creates survey state for a call.
func NewSession(id, customerName string) *Session {
	return &Session{ID: id, CustomerName: customerName}
}
