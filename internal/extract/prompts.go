package extract

import (
	"fmt"
	"strings"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
)

// promptSpec holds the per-question classification contract.
type promptSpec struct {
	values       []string
	instructions string
}

var prompts = map[string]promptSpec{
	"identity": {
		values: []string{"YES", "NO", "NOT_AVAILABLE", "SENSITIVE_SITUATION", "NAME_CORRECTION", "ROLE_CLARIFICATION", "REFUSE", "UNCLEAR"},
		instructions: `- YES: caller confirms they are the intended person. action=NEXT, response_text=null.
- NO: caller says they are NOT that person / wrong number. action=NEXT.
- NOT_AVAILABLE: the person is not available (family member speaking). action=CLARIFY; ask when they will be available.
- SENSITIVE_SITUATION: death or serious illness mentioned. action=CLOSING; generate an empathetic Hindi condolence message.
- NAME_CORRECTION: caller gives a corrected name. action=CLARIFY; set corrected_name and acknowledge.
- ROLE_CLARIFICATION: caller asks who you are or why you are calling. action=CLARIFY; explain you are an AI assistant gathering payment feedback, then re-ask the question.
- REFUSE: caller refuses to participate. action=CLOSING; generate a polite Hindi closing.
- UNCLEAR: intent cannot be determined. action=REPEAT.`,
	},
	"availability": {
		values: []string{"TIME_PROVIDED", "CONTACT_PROVIDED", "UNKNOWN", "UNCLEAR"},
		instructions: `- TIME_PROVIDED: caller states when the customer will be available; put the stated time in value verbatim.
- CONTACT_PROVIDED: caller gives an alternate phone number; put it in contact.
- UNKNOWN: caller does not know. action=NEXT.
- UNCLEAR: action=REPEAT.`,
	},
	"loan_taken": {
		values: []string{"YES", "NO", "ROLE_CLARIFICATION", "REFUSE", "OFF_TOPIC", "UNCLEAR"},
		instructions: `- YES: caller confirms a loan from the company. action=NEXT.
- NO: caller denies the loan or says wrong number. action=CLOSING; generate a Hindi apology for calling the wrong number.
- ROLE_CLARIFICATION: action=CLARIFY; explain your role, then re-ask.
- REFUSE: action=CLOSING; polite Hindi closing.
- OFF_TOPIC: caller asks about something else. action=CLARIFY; redirect politely and re-ask.
- UNCLEAR: action=REPEAT.`,
	},
	"emi_payment": {
		values: []string{"YES", "NO", "ROLE_CLARIFICATION", "REFUSE", "UNCLEAR"},
		instructions: `- YES: caller paid last month. action=NEXT.
- NO: caller did not pay. action=NEXT.
- ROLE_CLARIFICATION: action=CLARIFY.
- REFUSE: action=CLOSING.
- UNCLEAR: action=REPEAT.`,
	},
	"payee": {
		values: []string{"self", "family", "friend", "third_party", "UNCLEAR"},
		instructions: `- self: the caller paid themselves.
- family: a family member paid.
- friend: a friend paid.
- third_party: someone else paid.
- UNCLEAR: action=REPEAT.`,
	},
	"payee_details": {
		values: []string{"NAME_PROVIDED", "UNKNOWN", "UNCLEAR"},
		instructions: `Extract the payer's NAME into value and their CONTACT NUMBER (digits only) into contact.
- NAME_PROVIDED is not a literal value: put the extracted name itself in value.
- UNKNOWN: caller does not know the details. action=NEXT.
- UNCLEAR: action=REPEAT.`,
	},
	"payment_date": {
		values: []string{"DATE", "UNCLEAR"},
		instructions: `Extract the payment DATE in dd/mm/yyyy format into value. Relative dates (kal, pichhle hafte) must be resolved against today's date.
- UNCLEAR: no date can be determined. action=REPEAT.`,
	},
	"payment_mode": {
		values: []string{"online_lan", "online_field_executive", "cash", "branch", "outlet", "nach", "UNCLEAR"},
		instructions: `- online_lan: online payment (UPI, NEFT, RTGS) made directly.
- online_field_executive: online/UPI payment made to a field executive.
- cash: cash payment.
- branch: paid at a branch.
- outlet: paid at an outlet.
- nach: NACH auto-debit.
- UNCLEAR: action=REPEAT.`,
	},
	"executive_details": {
		values: []string{"PROVIDED", "UNKNOWN", "UNCLEAR"},
		instructions: `Extract the field executive's NAME into value and CONTACT NUMBER into contact.
- "Don't know" is a VALID answer: value=UNKNOWN, is_clear=true, action=NEXT.
- UNCLEAR: action=REPEAT.`,
	},
	"payment_reason": {
		values: []string{"emi", "emi_charges", "settlement", "foreclosure", "charges", "loan_cancellation", "advance_emi", "UNCLEAR"},
		instructions: `Classify the payment reason.
- UNCLEAR: action=REPEAT.`,
	},
	"amount": {
		values: []string{"AMOUNT", "UNCLEAR"},
		instructions: `Extract the payment AMOUNT in rupees as plain digits into value. Amounts may be spoken in words (paanch hazaar = 5000).
- UNCLEAR: no amount can be determined. action=REPEAT.`,
	},
}

// buildPrompt renders the classification prompt for one question.
func buildPrompt(company string, q flow.Question, transcript string, s *flow.Session) string {
	spec, ok := prompts[q.Name]
	if !ok {
		spec = promptSpec{values: []string{"UNCLEAR"}, instructions: "- UNCLEAR: action=REPEAT."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are an intelligent conversational AI assistant for %s conducting a customer survey call.\n\n", company)
	fmt.Fprintf(&b, "The agent just asked:\n%q\n\n", q.Text(s))
	b.WriteString("You receive the caller's reply (in Hindi, Hinglish, or English). Understand the intent, classify it and decide the next action.\n\n")
	b.WriteString("CLASSIFICATION:\n")
	b.WriteString(spec.instructions)
	b.WriteString("\n\nReturn ONLY this JSON (no extra text):\n")
	fmt.Fprintf(&b, `{"value": %s, "is_clear": true|false, "action": "NEXT"|"CLARIFY"|"REPEAT"|"CLOSING", "response_text": "string or null", "corrected_name": "string or null", "contact": "string or null"}`,
		strings.Join(quoteAll(spec.values), " | "))
	b.WriteString("\n\nAll response_text must be natural, conversational Hindi in Devanagari script.\n")
	fmt.Fprintf(&b, "\nCaller's reply: %s", transcript)
	return b.String()
}

func quoteAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
