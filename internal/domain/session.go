package domain

import "time"

// Role es el rol del usuario dentro del sistema de reclamos.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole normaliza un rol externo; cualquier valor desconocido es guest.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleStudent, RoleStaff, RoleAdmin:
		return Role(raw)
	default:
		return RoleGuest
	}
}

// Identity es el usuario autenticado que entrega la capa de autenticación.
type Identity struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
	Name       string `json:"name,omitempty"`
}

// SessionContext es el snapshot que acompaña a cada mensaje saliente.
type SessionContext struct {
	Role            Role
	Department      string
	Name            string
	IsAuthenticated bool
	SessionID       string
	Page            string
	SessionDuration time.Duration
}

// UIState agrupa las banderas transitorias del widget. No se persiste.
type UIState struct {
	IsOpen      bool     `json:"isOpen"`
	IsMinimized bool     `json:"isMinimized"`
	UnreadCount int      `json:"unreadCount"`
	IsTyping    bool     `json:"isTyping"`
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error,omitempty"`
}

// WidgetPhase es el estado visible del widget.
type WidgetPhase string

const (
	PhaseClosed    WidgetPhase = "closed"
	PhaseOpen      WidgetPhase = "open"
	PhaseMinimized WidgetPhase = "minimized"
)

func (s UIState) Phase() WidgetPhase {
	switch {
	case !s.IsOpen:
		return PhaseClosed
	case s.IsMinimized:
		return PhaseMinimized
	default:
		return PhaseOpen
	}
}
