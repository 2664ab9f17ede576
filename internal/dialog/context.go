// Package dialog tracks conversational state so follow-up questions
// ("他们之间有合作吗", "那这个领域的专家呢") can resolve pronouns and
// elided topics against the previous turn. State expires after a TTL
// and is kept per session.
package dialog

import (
	"sync"
	"time"
)

// Context holds what the previous turn established: the entities it
// mentioned (expert names) and the topic it was about (a field name or
// a publication title).
type Context struct {
	mu sync.Mutex

	lastQuestion string
	lastAnswer   string
	lastEntities []string
	lastTopic    string
	updatedAt    time.Time

	ttl time.Duration
	now func() time.Time
}

// NewContext creates an empty dialog context that expires ttl after its
// last update. A fresh context is invalid until the first Update.
func NewContext(ttl time.Duration) *Context {
	return newContext(ttl, time.Now)
}

func newContext(ttl time.Duration, now func() time.Time) *Context {
	return &Context{ttl: ttl, now: now}
}

// Valid reports whether the context was updated within the TTL.
func (c *Context) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updatedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.updatedAt) < c.ttl
}

// Update records the completed turn and resets the expiry clock.
func (c *Context) Update(question, answer string, entities []string, topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastQuestion = question
	c.lastAnswer = answer
	c.lastEntities = entities
	c.lastTopic = topic
	c.updatedAt = c.now()
}

// LastQuestion returns the previous turn's question.
func (c *Context) LastQuestion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuestion
}

// LastAnswer returns the previous turn's answer.
func (c *Context) LastAnswer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAnswer
}

// LastEntities returns a copy of the expert names the previous turn
// mentioned, oldest first.
func (c *Context) LastEntities() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lastEntities) == 0 {
		return nil
	}
	out := make([]string, len(c.lastEntities))
	copy(out, c.lastEntities)
	return out
}

// LastEntity returns the most recently mentioned expert name, or ""
// when no entities are recorded.
func (c *Context) LastEntity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lastEntities) == 0 {
		return ""
	}
	return c.lastEntities[len(c.lastEntities)-1]
}

// LastTopic returns the topic of the previous turn.
func (c *Context) LastTopic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTopic
}

// UpdatedAt returns the time of the last update, zero if never updated.
func (c *Context) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}
