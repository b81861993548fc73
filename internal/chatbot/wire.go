package chatbot

import (
	"time"

	"complaint-chat/internal/domain"
)

// MessageRequest es el cuerpo de POST /chatbot/message.
type MessageRequest struct {
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Context   WireContext `json:"context"`
}

// WireContext es el context bag tal como viaja por la red.
type WireContext struct {
	UserRole            string                `json:"user_role"`
	Department          string                `json:"department,omitempty"`
	Name                string                `json:"name,omitempty"`
	IsAuthenticated     bool                  `json:"is_authenticated"`
	Page                string                `json:"page,omitempty"`
	ConversationHistory []domain.HistoryEntry `json:"conversation_history"`
	SessionDuration     int64                 `json:"session_duration"`
}

func NewWireContext(sc domain.SessionContext, history []domain.HistoryEntry) WireContext {
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	role := sc.Role
	if role == "" {
		role = domain.RoleGuest
	}
	return WireContext{
		UserRole:            string(role),
		Department:          sc.Department,
		Name:                sc.Name,
		IsAuthenticated:     sc.IsAuthenticated,
		Page:                sc.Page,
		ConversationHistory: history,
		SessionDuration:     sc.SessionDuration.Milliseconds(),
	}
}

// SessionContext reconstruye el snapshot del lado del servidor.
func (w WireContext) SessionContext(sessionID string) domain.SessionContext {
	return domain.SessionContext{
		Role:            domain.ParseRole(w.UserRole),
		Department:      w.Department,
		Name:            w.Name,
		IsAuthenticated: w.IsAuthenticated,
		SessionID:       sessionID,
		Page:            w.Page,
		SessionDuration: time.Duration(w.SessionDuration) * time.Millisecond,
	}
}

// MessageResponse es la respuesta de POST /chatbot/message; todo salvo
// response es opcional.
type MessageResponse struct {
	Response     string          `json:"response"`
	SessionID    string          `json:"session_id,omitempty"`
	Suggestions  []string        `json:"suggestions,omitempty"`
	QuickReplies []string        `json:"quick_replies,omitempty"`
	Actions      []domain.Action `json:"actions,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	Confidence   *float64        `json:"confidence,omitempty"`
	IsFallback   bool            `json:"is_fallback,omitempty"`
}

func (r MessageResponse) ToReply() domain.Reply {
	reply := domain.Reply{
		Text:         r.Response,
		SessionID:    r.SessionID,
		Suggestions:  r.Suggestions,
		QuickReplies: r.QuickReplies,
		Actions:      r.Actions,
		Metadata:     r.Metadata,
		IsFallback:   r.IsFallback,
	}
	if fb, ok := r.Metadata["fallback"].(bool); ok && fb {
		reply.IsFallback = true
	}
	if r.Confidence != nil {
		c := clampConfidence(*r.Confidence)
		reply.Confidence = &c
	}
	return reply
}

// NewMessageResponse es la inversa de ToReply, usada por el servidor.
func NewMessageResponse(reply domain.Reply) MessageResponse {
	return MessageResponse{
		Response:     reply.Text,
		SessionID:    reply.SessionID,
		Suggestions:  reply.Suggestions,
		QuickReplies: reply.QuickReplies,
		Actions:      reply.Actions,
		Metadata:     reply.Metadata,
		Confidence:   reply.Confidence,
		IsFallback:   reply.IsFallback,
	}
}

// RateRequest es el cuerpo de POST /chatbot/rate.
type RateRequest struct {
	MessageID string `json:"message_id"`
	Rating    string `json:"rating"`
	Feedback  string `json:"feedback,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
