package domain

// Reply es la respuesta estructurada del chatbot. Todos los campos existen
// siempre; vacío significa "no enviado por el backend".
type Reply struct {
	Text         string
	SessionID    string
	Suggestions  []string
	QuickReplies []string
	Actions      []Action
	Metadata     map[string]any
	Confidence   *float64
	IsFallback   bool
}

// HistoryEntry es la forma reducida de un mensaje que viaja como contexto.
type HistoryEntry struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// FAQCategory agrupa preguntas frecuentes por tema.
type FAQCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`
}

// FAQ es una pregunta frecuente con su respuesta.
type FAQ struct {
	ID         string   `json:"id"`
	CategoryID string   `json:"category_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Keywords   []string `json:"keywords,omitempty"`
}
