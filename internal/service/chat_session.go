package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-chat/internal/chatbot"
	"complaint-chat/internal/domain"
)

// ConnectionErrorMessage es el texto fijo que se agrega cuando falla el transporte.
const ConnectionErrorMessage = "Sorry, I'm having trouble connecting right now. Please try again later."

const (
	contextHistorySize = 5
	sendErrorText      = "Failed to send message"
	rateTimeout        = 10 * time.Second
)

var (
	ErrSendInFlight         = errors.New("a message is already being sent")
	ErrMessageNotFound      = errors.New("message not found")
	ErrInvalidRating        = errors.New("invalid rating")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
	ErrSpeechUnavailable    = errors.New("speech input unavailable")
	ErrChatNotConfigured    = errors.New("chat session not configured")
)

// Clipboard es el puerto hacia el portapapeles del entorno.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// SpeechInput es el puerto de dictado por voz.
type SpeechInput interface {
	Listen(ctx context.Context) (string, error)
}

// ChatSessionDeps agrupa las capacidades que recibe la sesión.
type ChatSessionDeps struct {
	Transport chatbot.Client
	History   *HistoryService
	Clipboard Clipboard
	Speech    SpeechInput
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() string
}

// SessionSnapshot es una copia consistente del estado de la sesión.
type SessionSnapshot struct {
	Messages          []domain.Message
	UI                domain.UIState
	Context           domain.SessionContext
	TranscriptVersion uint64
}

// ExportedMessage es la forma exportable de un mensaje del transcript.
type ExportedMessage struct {
	Type      domain.MessageType `json:"type"`
	Content   string             `json:"content"`
	Timestamp time.Time          `json:"timestamp"`
	Rating    domain.Rating      `json:"rating,omitempty"`
}

// ChatSession es la única fuente de verdad del transcript y de las banderas
// del widget de chat.
type ChatSession struct {
	transport chatbot.Client
	history   *HistoryService
	clipboard Clipboard
	speech    SpeechInput
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	mu           sync.Mutex
	messages     []domain.Message
	ui           domain.UIState
	identity     *domain.Identity
	sessionID    string
	page         string
	sessionStart time.Time
	inFlight     bool
	requestSeq   uint64
	generation   uint64
	version      uint64

	subMu       sync.Mutex
	subscribers map[int]func(SessionSnapshot)
	nextSubID   int

	persistMu sync.Mutex
	pending   sync.WaitGroup
}

// NewChatSession restaura el historial persistido y arranca sin session id.
func NewChatSession(ctx context.Context, deps ChatSessionDeps) *ChatSession {
	s := &ChatSession{
		transport:   deps.Transport,
		history:     deps.History,
		clipboard:   deps.Clipboard,
		speech:      deps.Speech,
		logger:      deps.Logger,
		now:         deps.Now,
		newID:       deps.NewID,
		subscribers: make(map[int]func(SessionSnapshot)),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.sessionStart = s.now()
	s.messages = s.history.Load(ctx, s.sessionStart)
	s.ui.Suggestions = []string{}
	return s
}

// Subscribe registra un observador que se invoca de forma síncrona después
// de cada mutación. Devuelve la función para desuscribirse.
func (s *ChatSession) Subscribe(fn func(SessionSnapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *ChatSession) notify() {
	snap := s.Snapshot()
	s.subMu.Lock()
	subs := make([]func(SessionSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot devuelve una copia del estado actual.
func (s *ChatSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Messages:          cloneMessages(s.messages),
		UI:                cloneUI(s.ui),
		Context:           s.contextLocked(),
		TranscriptVersion: s.version,
	}
}

func (s *ChatSession) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

func (s *ChatSession) UIState() domain.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUI(s.ui)
}

// SessionContext devuelve el context bag que acompañaría al próximo mensaje.
func (s *ChatSession) SessionContext() domain.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextLocked()
}

func (s *ChatSession) contextLocked() domain.SessionContext {
	sc := domain.SessionContext{
		Role:            domain.RoleGuest,
		SessionID:       s.sessionID,
		Page:            s.page,
		SessionDuration: s.now().Sub(s.sessionStart),
	}
	if s.identity != nil {
		sc.Role = s.identity.Role
		if sc.Role == "" {
			sc.Role = domain.RoleGuest
		}
		sc.Department = s.identity.Department
		sc.Name = s.identity.Name
		sc.IsAuthenticated = true
	}
	return sc
}

// SetIdentity reconstruye el context bag cuando cambia el usuario autenticado.
// nil significa invitado.
func (s *ChatSession) SetIdentity(identity *domain.Identity) {
	s.mu.Lock()
	if identity != nil {
		cp := *identity
		s.identity = &cp
	} else {
		s.identity = nil
	}
	s.mu.Unlock()
	s.notify()
}

// SetPage registra la ruta actual de la aplicación.
func (s *ChatSession) SetPage(path string) {
	s.mu.Lock()
	s.page = path
	s.mu.Unlock()
}

// SendMessage agrega el mensaje del usuario, consulta al transporte y agrega
// la respuesta del bot o un mensaje de error del sistema. Un contenido vacío
// se ignora sin error.
func (s *ChatSession) SendMessage(ctx context.Context, content string) error {
	if s == nil || s.transport == nil {
		return ErrChatNotConfigured
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.inFlight = true
	s.requestSeq++
	req := s.requestSeq
	gen := s.generation
	history := recentHistory(s.messages, contextHistorySize)
	s.messages = append(s.messages, domain.Message{
		ID:        s.newID(),
		Type:      domain.MessageTypeUser,
		Content:   content,
		Timestamp: s.now(),
	})
	s.version++
	s.ui.IsTyping = true
	s.ui.Error = ""
	sc := s.contextLocked()
	s.mu.Unlock()

	defer s.endTyping(req)

	s.persist(ctx)
	s.notify()

	reply, err := s.transport.SendMessage(ctx, content, sc, history)
	if err != nil {
		s.logger.Warn("chatbot send failed", zap.Error(err))
		s.recordFailure(ctx, req, gen)
		return fmt.Errorf("send message: %w", err)
	}
	s.recordReply(ctx, req, gen, reply)
	return nil
}

// SendVoiceMessage dicta un mensaje por el puerto de voz y lo envía.
func (s *ChatSession) SendVoiceMessage(ctx context.Context) error {
	if s.speech == nil {
		return ErrSpeechUnavailable
	}
	text, err := s.speech.Listen(ctx)
	if err != nil {
		return fmt.Errorf("speech input: %w", err)
	}
	return s.SendMessage(ctx, text)
}

func (s *ChatSession) recordReply(ctx context.Context, req, gen uint64, reply domain.Reply) {
	s.mu.Lock()
	s.finishRequestLocked(req)
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Info("discarding reply for cleared conversation")
		s.notify()
		return
	}

	msg := domain.Message{
		ID:           s.newID(),
		Type:         domain.MessageTypeBot,
		Content:      reply.Text,
		Timestamp:    s.now(),
		Suggestions:  reply.Suggestions,
		QuickReplies: reply.QuickReplies,
		Actions:      reply.Actions,
		Metadata:     reply.Metadata,
		Confidence:   reply.Confidence,
		IsFallback:   reply.IsFallback,
	}
	s.messages = append(s.messages, msg.Clone())
	s.version++
	if reply.SessionID != "" {
		s.sessionID = reply.SessionID
	}
	s.ui.Suggestions = append([]string{}, reply.Suggestions...)
	if !s.ui.IsOpen {
		s.ui.UnreadCount++
	}
	s.mu.Unlock()

	s.persist(ctx)
	s.notify()
}

func (s *ChatSession) recordFailure(ctx context.Context, req, gen uint64) {
	s.mu.Lock()
	s.finishRequestLocked(req)
	if gen != s.generation {
		s.mu.Unlock()
		s.notify()
		return
	}
	s.messages = append(s.messages, domain.Message{
		ID:        s.newID(),
		Type:      domain.MessageTypeSystem,
		Content:   ConnectionErrorMessage,
		Timestamp: s.now(),
		IsError:   true,
	})
	s.version++
	s.ui.Error = sendErrorText
	s.mu.Unlock()

	s.persist(ctx)
	s.notify()
}

// endTyping cierra la ventana de escritura de req si algún camino la dejó abierta.
func (s *ChatSession) endTyping(req uint64) {
	s.mu.Lock()
	changed := s.finishRequestLocked(req)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *ChatSession) finishRequestLocked(req uint64) bool {
	if !s.inFlight || s.requestSeq != req {
		return false
	}
	s.inFlight = false
	s.ui.IsTyping = false
	return true
}

// ClearChat vacía el transcript, olvida el session id y borra el espejo persistido.
func (s *ChatSession) ClearChat(ctx context.Context) {
	s.mu.Lock()
	s.messages = []domain.Message{}
	s.sessionID = ""
	s.ui.Suggestions = []string{}
	s.ui.Error = ""
	s.sessionStart = s.now()
	s.generation++
	s.version++
	s.mu.Unlock()

	s.persistMu.Lock()
	if err := s.history.Clear(ctx); err != nil {
		s.logger.Warn("clear chat history failed", zap.Error(err))
	}
	s.persistMu.Unlock()
	s.notify()
}

// ToggleChat abre o cierra el widget. Al abrir, el contador de no leídos vuelve a cero.
func (s *ChatSession) ToggleChat() {
	s.mu.Lock()
	if s.ui.IsOpen {
		s.ui.IsOpen = false
		s.ui.IsMinimized = false
	} else {
		s.ui.IsOpen = true
		s.ui.UnreadCount = 0
	}
	s.mu.Unlock()
	s.notify()
}

// ToggleMinimize alterna Open y Minimized; no hace nada con el widget cerrado.
func (s *ChatSession) ToggleMinimize() {
	s.mu.Lock()
	if !s.ui.IsOpen {
		s.mu.Unlock()
		return
	}
	s.ui.IsMinimized = !s.ui.IsMinimized
	s.mu.Unlock()
	s.notify()
}

// CloseForInactivity cierra el widget sin tocar el historial.
func (s *ChatSession) CloseForInactivity() {
	s.mu.Lock()
	if !s.ui.IsOpen && !s.ui.IsMinimized {
		s.mu.Unlock()
		return
	}
	s.ui.IsOpen = false
	s.ui.IsMinimized = false
	s.mu.Unlock()
	s.logger.Info("chat closed after inactivity")
	s.notify()
}

// RateMessage guarda la valoración (gana la última) y la envía al backend
// sin esperar respuesta; los errores del envío solo se registran.
func (s *ChatSession) RateMessage(ctx context.Context, id string, rating domain.Rating) error {
	if !rating.Valid() {
		return ErrInvalidRating
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	s.messages[idx].Rating = rating
	s.version++
	s.mu.Unlock()

	s.persist(ctx)
	s.notify()

	if s.transport == nil {
		return nil
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rateTimeout)
		defer cancel()
		if err := s.transport.RateMessage(rctx, id, rating, ""); err != nil {
			s.logger.Warn("submit rating failed", zap.String("message_id", id), zap.Error(err))
		}
	}()
	return nil
}

// Wait bloquea hasta que terminen los envíos de valoraciones pendientes.
func (s *ChatSession) Wait() {
	s.pending.Wait()
}

// CopyMessage copia el contenido de un mensaje al portapapeles.
func (s *ChatSession) CopyMessage(ctx context.Context, id string) error {
	if s.clipboard == nil {
		return ErrClipboardUnavailable
	}
	s.mu.Lock()
	idx := s.indexLocked(id)
	var content string
	if idx >= 0 {
		content = s.messages[idx].Content
	}
	s.mu.Unlock()
	if idx < 0 {
		return ErrMessageNotFound
	}
	return s.clipboard.WriteText(ctx, content)
}

// ExportConversation devuelve el transcript en orden, listo para serializar.
func (s *ChatSession) ExportConversation() []ExportedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExportedMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, ExportedMessage{
			Type:      m.Type,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Rating:    m.Rating,
		})
	}
	return out
}

func (s *ChatSession) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.ExportConversation(), "", "  ")
}

func (s *ChatSession) indexLocked(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// persist reescribe el slot con el transcript vigente. persistMu serializa
// las escrituras para que la última siempre refleje el estado más nuevo.
func (s *ChatSession) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	msgs := s.Messages()
	if err := s.history.Save(ctx, msgs); err != nil {
		s.logger.Warn("persist chat history failed", zap.Error(err))
	}
}

func recentHistory(messages []domain.Message, n int) []domain.HistoryEntry {
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	out := make([]domain.HistoryEntry, 0, len(messages))
	for _, m := range messages {
		out = append(out, domain.HistoryEntry{Type: m.Type, Content: m.Content})
	}
	return out
}

func cloneMessages(in []domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func cloneUI(ui domain.UIState) domain.UIState {
	out := ui
	out.Suggestions = append([]string{}, ui.Suggestions...)
	return out
}
