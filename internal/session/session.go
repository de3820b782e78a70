// Package session assembles the per-execution-process decision stack from
// configuration: the conversation log, the human-backed services, and the
// control protocol client. The approvals config decides the shape — auto
// approve drops the human services entirely, allowed tool patterns and the
// decision timeout flow into the client and bridges.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/claude"
	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/decision"
	"github.com/arbiterhq/arbiter/internal/logs"
	"github.com/arbiterhq/arbiter/internal/notify"
)

var (
	// ErrAlreadyOpen means a session for the execution process exists.
	ErrAlreadyOpen = errors.New("session already open")
	// ErrNotOpen means no session exists for the execution process.
	ErrNotOpen = errors.New("session not open")
)

// Session is the decision stack for one agent execution.
type Session struct {
	ProcessID uuid.UUID
	Log       *logs.Store
	Client    *claude.Client

	manager *Manager
	once    sync.Once
}

// Close detaches the session's conversation log from the registry and
// forgets the session. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.manager.registry.DetachStore(s.ProcessID)
		s.manager.mu.Lock()
		delete(s.manager.sessions, s.ProcessID)
		s.manager.mu.Unlock()
	})
}

// Manager opens sessions configured from the approvals settings.
type Manager struct {
	registry *decision.Registry
	notifier notify.Notifier
	cfg      config.ApprovalsConfig
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager over the shared registry.
func NewManager(registry *decision.Registry, cfg config.ApprovalsConfig, notifier notify.Notifier, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open creates the session for an execution process: a fresh conversation
// log attached to the registry and a protocol client wired per the
// approvals config. At most one session per process may be open.
func (m *Manager) Open(processID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[processID]; exists {
		return nil, ErrAlreadyOpen
	}

	store := logs.NewStore()
	m.registry.AttachStore(processID, store)

	var approvals approval.ApprovalService
	var questions approval.QuestionService
	if !m.cfg.AutoApprove {
		timeout := decision.WithRequestTimeout(m.cfg.Timeout)
		approvals = decision.NewHumanApprovalService(m.registry, m.notifier, processID, m.logger, timeout)
		questions = decision.NewHumanQuestionService(m.registry, m.notifier, processID, m.logger, timeout)
	}

	client := claude.NewClient(store, approvals, questions,
		claude.WithAllowedTools(m.cfg.AllowedTools),
		claude.WithClientLogger(m.logger),
	)

	s := &Session{
		ProcessID: processID,
		Log:       store,
		Client:    client,
		manager:   m,
	}
	m.sessions[processID] = s

	m.logger.Info("session opened",
		"process_id", processID,
		"auto_approve", m.cfg.AutoApprove,
		"allowed_tools", len(m.cfg.AllowedTools),
	)
	return s, nil
}

// Get returns the open session for an execution process.
func (m *Manager) Get(processID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[processID]
	return s, ok
}

// Close closes the session for an execution process.
func (m *Manager) Close(processID uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[processID]
	m.mu.Unlock()
	if !ok {
		return ErrNotOpen
	}
	s.Close()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
