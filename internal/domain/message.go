package domain

import "time"

// MessageType identifica quién produjo un mensaje del transcript.
type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeBot    MessageType = "bot"
	MessageTypeSystem MessageType = "system"
)

// Rating es la valoración que el usuario deja sobre una respuesta del bot.
type Rating string

const (
	RatingNone Rating = ""
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Valid indica si la valoración es una de las aceptadas por la API.
func (r Rating) Valid() bool {
	return r == RatingUp || r == RatingDown
}

// Action es un descriptor opaco que el backend adjunta a una respuesta.
type Action struct {
	Type    string         `json:"type"`
	Label   string         `json:"label,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Message es una entrada inmutable del transcript; solo Rating puede cambiar.
type Message struct {
	ID           string         `json:"id"`
	Type         MessageType    `json:"type"`
	Content      string         `json:"content"`
	Timestamp    time.Time      `json:"timestamp"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	QuickReplies []string       `json:"quickReplies,omitempty"`
	Actions      []Action       `json:"actions,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Rating       Rating         `json:"rating,omitempty"`
	IsFallback   bool           `json:"isFallback,omitempty"`
	IsError      bool           `json:"isError,omitempty"`
}

// Clone devuelve una copia que no comparte slices ni mapas con el original.
func (m Message) Clone() Message {
	out := m
	if m.Suggestions != nil {
		out.Suggestions = append([]string(nil), m.Suggestions...)
	}
	if m.QuickReplies != nil {
		out.QuickReplies = append([]string(nil), m.QuickReplies...)
	}
	if m.Actions != nil {
		out.Actions = append([]Action(nil), m.Actions...)
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	if m.Confidence != nil {
		c := *m.Confidence
		out.Confidence = &c
	}
	return out
}

// MessageRating es la valoración persistida del lado del servidor.
type MessageRating struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id,omitempty"`
	Rating    Rating    `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
