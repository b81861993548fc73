package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"complaint-chat/internal/chatbot"
	"complaint-chat/internal/domain"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newMonitoredSession(t *testing.T, timeout time.Duration) (*ChatSession, *InactivityMonitor) {
	t.Helper()
	transport := &chatbot.MockClient{Reply: domain.Reply{Text: "ok"}}
	session := NewChatSession(context.Background(), ChatSessionDeps{Transport: transport, Logger: zap.NewNop()})
	monitor := NewInactivityMonitor(session, timeout, zap.NewNop())
	t.Cleanup(monitor.Stop)
	return session, monitor
}

func TestInactivityMonitor_ClosesAfterTimeout(t *testing.T) {
	session, monitor := newMonitoredSession(t, 40*time.Millisecond)
	if monitor.Armed() {
		t.Fatalf("expected no countdown while closed")
	}

	session.ToggleChat()
	session.ToggleMinimize()
	if !monitor.Armed() {
		t.Fatalf("expected countdown armed after opening")
	}

	closed := waitFor(t, time.Second, func() bool {
		ui := session.UIState()
		return !ui.IsOpen && !ui.IsMinimized
	})
	if !closed {
		t.Fatalf("expected session closed after inactivity, got %+v", session.UIState())
	}
	if monitor.Armed() {
		t.Fatalf("expected countdown disarmed after close")
	}
}

func TestInactivityMonitor_RearmsOnNewMessages(t *testing.T) {
	session, _ := newMonitoredSession(t, 250*time.Millisecond)
	session.ToggleChat()

	for i := 0; i < 8; i++ {
		time.Sleep(50 * time.Millisecond)
		if err := session.SendMessage(context.Background(), "still here"); err != nil {
			t.Fatalf("send: %v", err)
		}
		if !session.UIState().IsOpen {
			t.Fatalf("expected session kept open by activity at step %d", i)
		}
	}

	closed := waitFor(t, time.Second, func() bool { return !session.UIState().IsOpen })
	if !closed {
		t.Fatalf("expected close once activity stops")
	}
	if n := len(session.Messages()); n != 16 {
		t.Fatalf("expected inactivity close to keep history, got %d messages", n)
	}
}

func TestInactivityMonitor_ManualCloseDisarms(t *testing.T) {
	session, monitor := newMonitoredSession(t, 50*time.Millisecond)
	session.ToggleChat()
	session.ToggleChat()
	if monitor.Armed() {
		t.Fatalf("expected countdown stopped on manual close")
	}
}

func TestInactivityMonitor_Stop(t *testing.T) {
	session, monitor := newMonitoredSession(t, 30*time.Millisecond)
	session.ToggleChat()
	monitor.Stop()

	time.Sleep(80 * time.Millisecond)
	if !session.UIState().IsOpen {
		t.Fatalf("expected stopped monitor not to close the session")
	}
}
