package conversation

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAlreadyInFlow is returned by Start when the chat already has an active flow.
	ErrAlreadyInFlow = errors.New("conversation: flow already active")
	// ErrNoActiveFlow is returned when a chat-scoped mutation finds the chat idle.
	ErrNoActiveFlow = errors.New("conversation: no active flow")
	// ErrUnknownFlow is returned by Start for flows without steps.
	ErrUnknownFlow = errors.New("conversation: unknown flow")
	// ErrStepMismatch is returned by Advance for steps outside the active flow.
	ErrStepMismatch = errors.New("conversation: step does not belong to flow")
	// ErrFieldMismatch is returned by RecordField for keys or values foreign to the active flow.
	ErrFieldMismatch = errors.New("conversation: field does not belong to flow")
)

// Session is a snapshot of one chat's dialogue position.
type Session struct {
	Flow   Flow
	Step   Step
	Fields Fields
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// Machine holds in-memory sessions keyed by chat id. State is lost on restart;
// users then simply start the flow again.
//
// Individual methods are safe for concurrent use. Lock serializes whole turns
// of one chat without blocking other chats.
type Machine struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*chatLock
}

// NewMachine returns a machine with no active sessions.
func NewMachine() *Machine {
	return &Machine{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*chatLock),
	}
}

// Lock acquires the per-chat turn lock and returns its release function.
func (m *Machine) Lock(chatID int64) (unlock func()) {
	m.locksMu.Lock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &chatLock{}
		m.locks[chatID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, chatID)
			}
			m.locksMu.Unlock()
		})
	}
}

// Start activates flow for chatID at its initial step with empty fields.
func (m *Machine) Start(chatID int64, flow Flow) error {
	fields := flow.newFields()
	if fields == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFlow, flow)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyInFlow, s.Flow)
	}
	m.sessions[chatID] = &Session{Flow: flow, Step: flow.InitialStep(), Fields: fields}
	return nil
}

// CurrentStep returns the step chatID waits on, or StepNone when idle.
func (m *Machine) CurrentStep(chatID int64) Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.Step
	}
	return StepNone
}

// Session returns a snapshot of chatID's session and whether one is active.
func (m *Machine) Session(chatID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return *s, true
	}
	return Session{}, false
}

// RecordField merges one validated value into the active flow's fields.
func (m *Machine) RecordField(chatID int64, key Field, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return ErrNoActiveFlow
	}
	next, err := s.Fields.with(key, value)
	if err != nil {
		return err
	}
	s.Fields = next
	return nil
}

// Advance moves the active flow of chatID to next.
func (m *Machine) Advance(chatID int64, next Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return ErrNoActiveFlow
	}
	if !s.Flow.has(next) {
		return fmt.Errorf("%w: %s has no %s", ErrStepMismatch, s.Flow, next)
	}
	s.Step = next
	return nil
}

// Complete returns the collected fields and clears the session. A second call returns nil.
func (m *Machine) Complete(chatID int64) Fields {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return nil
	}
	delete(m.sessions, chatID)
	return s.Fields
}

// Active reports how many chats are mid-flow.
func (m *Machine) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
