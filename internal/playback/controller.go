// Package playback tracks the single authorized synthesized-audio
// playback per session, the primitive behind barge-in.
package playback

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies one synthesis attempt. Only the most recently
// issued token per session is valid.
type Token string

// Controller holds the valid token per session id.
type Controller struct {
	mu     sync.Mutex
	tokens map[string]Token
}

func NewController() *Controller {
	return &Controller{tokens: make(map[string]Token)}
}

// IssueToken authorizes a new playback for the session, invalidating
// any prior token.
func (c *Controller) IssueToken(sessionID string) Token {
	tok := Token(uuid.NewString())
	c.mu.Lock()
	c.tokens[sessionID] = tok
	c.mu.Unlock()
	return tok
}

// Invalidate revokes the session's current token. Called the instant
// caller speech starts so in-flight bot audio stops within one frame.
func (c *Controller) Invalidate(sessionID string) {
	c.mu.Lock()
	delete(c.tokens, sessionID)
	c.mu.Unlock()
}

// IsValid reports whether tok is still the session's authorized
// playback. Checked before every outbound frame, not per utterance.
func (c *Controller) IsValid(sessionID string, tok Token) bool {
	c.mu.Lock()
	cur, ok := c.tokens[sessionID]
	c.mu.Unlock()
	return ok && cur == tok
}

// Release drops all state for a torn-down session.
func (c *Controller) Release(sessionID string) {
	c.Invalidate(sessionID)
}
