package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/service"
)

// renderer imprime lo nuevo de cada snapshot; el widget de terminal.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	shown   int
	phase   domain.WidgetPhase
	typing  bool
	ratings map[string]domain.Rating
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, phase: domain.PhaseClosed, ratings: make(map[string]domain.Rating)}
}

func (r *renderer) render(snap service.SessionSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if phase := snap.UI.Phase(); phase != r.phase {
		r.phase = phase
		fmt.Fprintf(r.out, "[widget %s]\n", phase)
		if phase == domain.PhaseOpen {
			r.shown = 0
		}
	}

	if len(snap.Messages) < r.shown {
		// Conversación borrada.
		r.shown = 0
		r.ratings = make(map[string]domain.Rating)
	}

	if r.phase != domain.PhaseOpen {
		if snap.UI.UnreadCount > 0 {
			fmt.Fprintf(r.out, "[%d sin leer]\n", snap.UI.UnreadCount)
		}
		return
	}

	for i := r.shown; i < len(snap.Messages); i++ {
		fmt.Fprintln(r.out, formatMessage(i+1, snap.Messages[i]))
		r.ratings[snap.Messages[i].ID] = snap.Messages[i].Rating
	}
	r.shown = len(snap.Messages)

	for i, m := range snap.Messages {
		if prev, ok := r.ratings[m.ID]; ok && prev != m.Rating {
			fmt.Fprintf(r.out, "[mensaje %d valorado: %s]\n", i+1, m.Rating)
		}
		r.ratings[m.ID] = m.Rating
	}

	if snap.UI.IsTyping && !r.typing {
		fmt.Fprintln(r.out, "Asistente esta escribiendo...")
	}
	r.typing = snap.UI.IsTyping

	if !snap.UI.IsTyping && len(snap.UI.Suggestions) > 0 && len(snap.Messages) > 0 && snap.Messages[len(snap.Messages)-1].Type == domain.MessageTypeBot {
		fmt.Fprintf(r.out, "  sugerencias: %s\n", strings.Join(snap.UI.Suggestions, " | "))
	}
}

func formatMessage(n int, m domain.Message) string {
	var b strings.Builder
	switch m.Type {
	case domain.MessageTypeUser:
		fmt.Fprintf(&b, "%d. Tu > %s", n, m.Content)
	case domain.MessageTypeBot:
		fmt.Fprintf(&b, "%d. Asistente > %s", n, m.Content)
		if m.IsFallback {
			b.WriteString(" (modo sin conexion)")
		}
		if len(m.QuickReplies) > 0 {
			fmt.Fprintf(&b, "\n   respuestas rapidas: %s", strings.Join(m.QuickReplies, " | "))
		}
	default:
		fmt.Fprintf(&b, "%d. ! %s", n, m.Content)
	}
	return b.String()
}
