package flow

import (
	"fmt"
	"strings"
)

// Question is one step of the survey. Skip decides whether the step
// applies given earlier answers; Store writes a clear extraction
// result into the session, including end-of-call latching.
type Question struct {
	Name  string
	text  string
	Skip  func(s *Session) bool
	Store func(s *Session, r Result)
}

// Text returns the question text with the customer name substituted.
func (q Question) Text(s *Session) string {
	return strings.ReplaceAll(q.text, "{{customer_name}}", s.CustomerName)
}

// latchClosing marks the call for termination with the extractor's
// closing line, falling back to fallback.
func latchClosing(s *Session, r Result, reason, fallback string) {
	s.CallShouldEnd = true
	s.CallEndReason = reason
	if r.ResponseText != "" {
		s.ClosingMessage = r.ResponseText
	} else {
		s.ClosingMessage = fallback
	}
}

// DefaultQuestions returns the survey sequence for a loan-payment
// feedback call on behalf of company.
func DefaultQuestions(company string) []Question {
	return []Question{
		{
			Name: "identity",
			text: fmt.Sprintf(msgGreeting, company),
			Store: func(s *Session, r Result) {
				s.IdentityConfirmation = r.Value
				if r.CorrectedName != "" {
					s.CustomerName = r.CorrectedName
				}
				if r.Action == ActionClosing {
					latchClosing(s, r, "refused_or_sensitive", msgClosingGeneric)
				}
			},
		},
		{
			Name: "availability",
			text: "कृपया बताइए कि {{customer_name}} जी से किस समय बात करना ठीक रहेगा? अगर कोई दूसरा नंबर हो तो वह भी बता दीजिए।",
			// Only asked when the caller is not the customer.
			Skip: func(s *Session) bool { return s.IdentityConfirmation != "NO" },
			Store: func(s *Session, r Result) {
				s.Availability = r.Value
				s.AlternateContact = r.Contact
				// A captured callback time ends the call.
				latchClosing(s, r, "alternate_contact", msgClosingAlternateContact)
			},
		},
		{
			Name: "loan_taken",
			text: "यह कॉल आपके लोन के भुगतान अनुभव को समझने के लिए है। क्या आपने एल एंड टी फ़ाइनेंस से लोन लिया है?",
			Store: func(s *Session, r Result) {
				s.LoanTaken = r.Value
				if r.Value == "NO" {
					latchClosing(s, r, "no_loan", msgWrongNumberApology)
				} else if r.Action == ActionClosing {
					latchClosing(s, r, "refused", msgClosingGeneric)
				}
			},
		},
		{
			Name: "emi_payment",
			text: "क्या आपने पिछले महीने भुगतान किया था?",
			Store: func(s *Session, r Result) {
				s.LastMonthPayment = r.Value
				if r.Action == ActionClosing {
					latchClosing(s, r, "refused", msgClosingGeneric)
				}
			},
		},
		{
			Name: "payee",
			text: "कृपया बताइए—यह भुगतान किसने किया था… आपने खुद… परिवार के किसी सदस्य ने… आपके किसी मित्र ने… या फिर किसी और ने?",
			Store: func(s *Session, r Result) { s.Payee = r.Value },
		},
		{
			Name: "payee_details",
			text: "कृपया बताइए, इस अकाउंट का भुगतान किसने किया है? क्या मैं भुगतानकर्ता का नाम और संपर्क नंबर नोट कर सकती हूँ?",
			// Only asked when someone other than the customer paid.
			Skip: func(s *Session) bool { return s.Payee == "self" },
			Store: func(s *Session, r Result) {
				s.PayeeName = r.Value
				s.PayeeContact = r.Contact
			},
		},
		{
			Name: "payment_date",
			text: "आपने भुगतान किस तारीख पर किया था?",
			Store: func(s *Session, r Result) { s.PaymentDate = r.Value },
		},
		{
			Name: "payment_mode",
			text: "कृपया बताइए—आपने भुगतान किस माध्यम से किया था… ऑनलाइन.. जैसे यूपीआई, .. एनईएफ़टी या आरटीजीएस से… फ़ील्ड एग्ज़ीक्यूटिव को .. ऑनलाइन या यूपीआई द्वारा… नकद में… शाखा या आउटलेट पर जाकर… या फिर एनएसीएच के माध्यम से?",
			Store: func(s *Session, r Result) { s.PaymentMode = r.Value },
		},
		{
			Name: "executive_details",
			text: "क्या आप मुझे फील्ड एग्ज़ीक्यूटिव का नाम और नंबर बता सकते हैं?",
			// Only relevant for field-executive or cash payments.
			Skip: func(s *Session) bool {
				return s.PaymentMode != "online_field_executive" && s.PaymentMode != "cash"
			},
			Store: func(s *Session, r Result) {
				s.ExecutiveName = r.Value
				s.ExecutiveContact = r.Contact
			},
		},
		{
			Name: "payment_reason",
			text: "भुगतान किस कारण से किया गया था?",
			Store: func(s *Session, r Result) { s.PaymentReason = r.Value },
		},
		{
			Name: "amount",
			text: "वस्तव में कितना भुगतान किया गया था? कृपया राशि बताइए ताकि हम उसे दर्ज कर सकें।",
			Store: func(s *Session, r Result) { s.PaymentAmount = r.Value },
		},
	}
}
