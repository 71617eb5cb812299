package flow

import "context"

// Outcome of processing one answer.
type Outcome int

const (
	OutcomeNext Outcome = iota
	OutcomeRepeat
	OutcomeEnd
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNext:
		return "NEXT"
	case OutcomeRepeat:
		return "REPEAT"
	case OutcomeEnd:
		return "END"
	case OutcomeCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// Action is the extractor's routing verdict for one answer.
type Action int

const (
	ActionNext Action = iota
	ActionClarify
	ActionRepeat
	ActionClosing
)

// Result is one extracted answer.
type Result struct {
	Value         string
	IsClear       bool
	Action        Action
	ResponseText  string
	CorrectedName string
	Contact       string
}

// Extractor classifies a raw transcript against the current question.
// Never called twice concurrently for the same session.
type Extractor interface {
	Extract(ctx context.Context, question Question, transcript string, s *Session) (Result, error)
}

// Decision tells the bridge what to do after an answer: the outcome,
// the next line to speak, and whether the call ends after speaking it.
type Decision struct {
	Outcome Outcome
	BotText string
	EndCall bool
}

// Machine walks sessions through the question sequence.
type Machine struct {
	questions  []Question
	extractor  Extractor
	maxRetries int
}

func NewMachine(questions []Question, extractor Extractor, maxRetries int) *Machine {
	return &Machine{questions: questions, extractor: extractor, maxRetries: maxRetries}
}

// FirstQuestion positions the session at its first applicable
// question and returns its text. Empty when the sequence is empty.
func (m *Machine) FirstQuestion(s *Session) string {
	idx := m.nextIndex(s, s.CurrentQuestion)
	if idx >= len(m.questions) {
		return ""
	}
	s.CurrentQuestion = idx
	return m.questions[idx].Text(s)
}

// Advance processes one caller transcript. Extraction failures and
// timeouts count as unclear answers and consume a retry.
func (m *Machine) Advance(ctx context.Context, s *Session, transcript string) Decision {
	if s.CurrentQuestion >= len(m.questions) {
		return Decision{Outcome: OutcomeCompleted, BotText: msgClosingSuccess, EndCall: true}
	}
	q := m.questions[s.CurrentQuestion]

	res, err := m.extractor.Extract(ctx, q, transcript, s)
	if err != nil || !res.IsClear {
		s.RetryCount++
		if s.RetryCount >= m.maxRetries {
			s.CallShouldEnd = true
			s.CallEndReason = "max_retries"
			return Decision{Outcome: OutcomeEnd, BotText: msgMaxRetries, EndCall: true}
		}
		return Decision{Outcome: OutcomeRepeat, BotText: q.Text(s)}
	}

	s.RetryCount = 0
	if q.Store != nil {
		q.Store(s, res)
	}

	// Clarifications re-ask the same question without consuming a
	// retry; the extractor's text already embeds the re-ask.
	if res.Action == ActionClarify {
		text := res.ResponseText
		if text == "" {
			text = q.Text(s)
		}
		return Decision{Outcome: OutcomeRepeat, BotText: text}
	}

	if s.CallShouldEnd {
		text := s.ClosingMessage
		if text == "" {
			text = msgClosingGeneric
		}
		return Decision{Outcome: OutcomeCompleted, BotText: text, EndCall: true}
	}

	idx := m.nextIndex(s, s.CurrentQuestion+1)
	if idx >= len(m.questions) {
		s.CurrentQuestion = len(m.questions)
		return Decision{Outcome: OutcomeCompleted, BotText: msgClosingSuccess, EndCall: true}
	}
	s.CurrentQuestion = idx
	return Decision{Outcome: OutcomeNext, BotText: m.questions[idx].Text(s)}
}

// nextIndex finds the first question at or after from whose skip
// condition does not hold.
func (m *Machine) nextIndex(s *Session, from int) int {
	for i := from; i < len(m.questions); i++ {
		if m.questions[i].Skip == nil || !m.questions[i].Skip(s) {
			return i
		}
	}
	return len(m.questions)
}
