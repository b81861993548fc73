package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInactivityTimeout es el tiempo sin mensajes tras el cual se cierra el widget.
const DefaultInactivityTimeout = 10 * time.Minute

// InactivityMonitor cierra la sesión abierta cuando pasa el timeout sin cambios
// en el transcript. La cuenta se rearma con cada cambio mientras está abierta.
type InactivityMonitor struct {
	session *ChatSession
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	timer       *time.Timer
	armSeq      uint64
	lastVersion uint64
	wasOpen     bool
	stopped     bool
	unsubscribe func()
}

func NewInactivityMonitor(session *ChatSession, timeout time.Duration, logger *zap.Logger) *InactivityMonitor {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &InactivityMonitor{
		session: session,
		timeout: timeout,
		logger:  logger,
	}
	snap := session.Snapshot()
	m.lastVersion = snap.TranscriptVersion
	m.observe(snap)
	m.unsubscribe = session.Subscribe(m.observe)
	return m
}

func (m *InactivityMonitor) observe(snap SessionSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	changed := snap.TranscriptVersion != m.lastVersion
	m.lastVersion = snap.TranscriptVersion
	opened := snap.UI.IsOpen && !m.wasOpen
	m.wasOpen = snap.UI.IsOpen

	if !snap.UI.IsOpen {
		m.disarmLocked()
		return
	}
	if changed || opened || m.timer == nil {
		m.armLocked()
	}
}

func (m *InactivityMonitor) armLocked() {
	m.disarmLocked()
	m.armSeq++
	seq := m.armSeq
	m.timer = time.AfterFunc(m.timeout, func() { m.fire(seq) })
}

func (m *InactivityMonitor) disarmLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *InactivityMonitor) fire(seq uint64) {
	m.mu.Lock()
	if m.stopped || seq != m.armSeq || m.timer == nil {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()

	m.logger.Debug("inactivity timeout reached", zap.Duration("timeout", m.timeout))
	m.session.CloseForInactivity()
}

// Armed indica si hay una cuenta regresiva en curso.
func (m *InactivityMonitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// Stop desconecta el monitor de la sesión y cancela la cuenta en curso.
func (m *InactivityMonitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.disarmLocked()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
