package store

import (
	"fmt"
	"sync"
	"time"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Citation is a grounding source reference returned alongside a model reply.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one turn in a session transcript. Messages are immutable after
// append except for AudioData, which is attached once after a successful
// speech-synthesis call.
type Message struct {
	Role      string     `json:"role"`
	Text      string     `json:"text"`
	IsError   bool       `json:"isError,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Grounding []Citation `json:"grounding,omitempty"`
	// Cached synthesized speech (raw PCM16). Not shipped to clients.
	AudioData []byte `json:"-"`
}

// ProjectContext holds the free-text project fields injected into the system
// instruction. Empty strings are legal; there is no validation.
type ProjectContext struct {
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
}

// MemoryStore keeps per-session transcripts, project context, and the
// per-session in-flight send guard. Transcripts are append-only; indices stay
// stable for the lifetime of the session so cached audio can be keyed by them.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	contexts map[string]ProjectContext
	inflight map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Message),
		contexts: make(map[string]ProjectContext),
		inflight: make(map[string]bool),
	}
}

// Append adds a message to the end of the session transcript and returns its
// index.
func (m *MemoryStore) Append(sessionID string, msg Message) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], msg)
	return len(m.sessions[sessionID]) - 1
}

// Get returns a copy of the full session transcript in insertion order.
func (m *MemoryStore) Get(sessionID string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// LastN returns the most recent n messages in original order. With fewer than
// n messages it returns them all.
func (m *MemoryStore) LastN(sessionID string, n int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	if n < 0 {
		n = 0
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len returns the number of messages in the session transcript.
func (m *MemoryStore) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

// MessageAt returns the message at index, if present.
func (m *MemoryStore) MessageAt(sessionID string, index int) (Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	if index < 0 || index >= len(msgs) {
		return Message{}, false
	}
	return msgs[index], true
}

// SetAudioData attaches synthesized speech to an existing message. It never
// touches any other field.
func (m *MemoryStore) SetAudioData(sessionID string, index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.sessions[sessionID]
	if index < 0 || index >= len(msgs) {
		return fmt.Errorf("message index %d out of range (session has %d messages)", index, len(msgs))
	}
	msgs[index].AudioData = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) SetProjectContext(sessionID string, pc ProjectContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[sessionID] = pc
}

func (m *MemoryStore) ProjectContext(sessionID string) ProjectContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contexts[sessionID]
}

// TryBeginSend claims the session's in-flight send slot. It returns false if a
// send is already in progress, in which case the caller must not call EndSend.
func (m *MemoryStore) TryBeginSend(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[sessionID] {
		return false
	}
	m.inflight[sessionID] = true
	return true
}

// EndSend releases the session's in-flight send slot.
func (m *MemoryStore) EndSend(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, sessionID)
}
