package call

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var (
	ErrNotFound     = errors.New("call not found")
	ErrAlreadyEnded = errors.New("call already ended")
)

// Call is the registry record for one phone call.
type Call struct {
	ID              string    `json:"call_id"`
	ProviderCallSID string    `json:"provider_call_sid"`
	StreamSID       string    `json:"stream_sid,omitempty"`
	CallerID        string    `json:"caller_id,omitempty"`
	Status          Status    `json:"status"`
	Interruptions   int       `json:"interruptions"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
}

// Manager tracks active calls. Ending a call through the registry, whether
// by operator request or inactivity expiry, invokes the call's registered
// closer so the live session unwinds too.
type Manager struct {
	mu                sync.RWMutex
	calls             map[string]*Call
	closers           map[string]func()
	inactivityTimeout time.Duration
	onExpire          func(*Call)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 5 * time.Minute
	}
	return &Manager{
		calls:             make(map[string]*Call),
		closers:           make(map[string]func()),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Call)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

func (m *Manager) Create(providerCallSID, callerID string) *Call {
	now := time.Now().UTC()
	c := &Call{
		ID:              uuid.NewString(),
		ProviderCallSID: providerCallSID,
		CallerID:        callerID,
		Status:          StatusActive,
		StartedAt:       now,
		LastActivityAt:  now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[c.ID] = c
	return clone(c)
}

func (m *Manager) Get(callID string) (*Call, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.calls[callID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (m *Manager) Touch(callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return ErrNotFound
	}
	c.LastActivityAt = time.Now().UTC()
	return nil
}

func (m *Manager) SetStreamSID(callID, streamSID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return ErrNotFound
	}
	c.StreamSID = streamSID
	c.LastActivityAt = time.Now().UTC()
	return nil
}

func (m *Manager) Interrupt(callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return ErrNotFound
	}
	c.Interruptions++
	c.LastActivityAt = time.Now().UTC()
	return nil
}

// RegisterCloser attaches the session teardown hook for a call. End and
// inactivity expiry invoke it once, outside the registry lock.
func (m *Manager) RegisterCloser(callID string, closer func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return ErrNotFound
	}
	if c.Status != StatusActive {
		return ErrAlreadyEnded
	}
	m.closers[callID] = closer
	return nil
}

// End marks the call ended and closes its live session. A second End returns
// ErrAlreadyEnded with the record so callers can tell the transition apart
// from a repeat.
func (m *Manager) End(callID string) (*Call, error) {
	m.mu.Lock()
	c, ok := m.calls[callID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if c.Status == StatusEnded {
		cp := clone(c)
		m.mu.Unlock()
		return cp, ErrAlreadyEnded
	}
	c.Status = StatusEnded
	c.LastActivityAt = time.Now().UTC()
	closer := m.closers[callID]
	delete(m.closers, callID)
	cp := clone(c)
	m.mu.Unlock()

	if closer != nil {
		closer()
	}
	return cp, nil
}

func (m *Manager) List() []*Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Call, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, clone(c))
	}
	return out
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.calls {
		if c.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Call
	var closers []func()

	m.mu.Lock()
	for id, c := range m.calls {
		if c.Status != StatusActive {
			continue
		}
		if now.Sub(c.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		c.Status = StatusEnded
		c.LastActivityAt = now
		expired = append(expired, clone(c))
		if closer, ok := m.closers[id]; ok {
			closers = append(closers, closer)
			delete(m.closers, id)
		}
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, closer := range closers {
		closer()
	}
	if hook != nil {
		for _, c := range expired {
			hook(c)
		}
	}
}

func clone(c *Call) *Call {
	cp := *c
	return &cp
}
