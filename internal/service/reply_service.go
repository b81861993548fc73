package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/llm"
	"complaint-chat/internal/repository"
)

const (
	faqMatchLimit    = 3
	faqSearchLimit   = 10
	promptHistoryMax = 5
)

var (
	ErrFAQNotFound  = errors.New("faq not found")
	ErrEmptyMessage = errors.New("message is required")
)

// ReplyRequest es un mensaje entrante del widget ya decodificado.
type ReplyRequest struct {
	Message   string
	SessionID string
	Context   domain.SessionContext
	History   []domain.HistoryEntry
}

// ReplyService arma la respuesta del asistente: FAQ + LLM, y un modo offline
// cuando el LLM no está disponible.
type ReplyService struct {
	faqs   repository.FAQRepository
	llm    llm.LLMClient
	logger *zap.Logger
}

func NewReplyService(faqs repository.FAQRepository, llmClient llm.LLMClient, logger *zap.Logger) *ReplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplyService{faqs: faqs, llm: llmClient, logger: logger}
}

func (s *ReplyService) Reply(ctx context.Context, req ReplyRequest) (domain.Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return domain.Reply{}, ErrEmptyMessage
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	role := domain.ParseRole(string(req.Context.Role))

	matches := s.matchFAQs(ctx, text)

	reply := domain.Reply{SessionID: sessionID}
	if env, err := s.askLLM(ctx, text, req, matches); err == nil {
		reply.Text = env.Response
		reply.Confidence = env.Confidence
		reply.Suggestions = env.Suggestions
		reply.Metadata = map[string]any{"source": "llm", "faq_matches": len(matches)}
	} else {
		s.logger.Warn("llm unavailable, using fallback reply",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		reply = s.fallbackReply(sessionID, role, matches)
	}

	if len(reply.Suggestions) == 0 {
		reply.Suggestions = faqQuestions(matches, 1)
	}
	reply.QuickReplies = quickRepliesFor(role)
	reply.Actions = actionsFor(role, req.Context.IsAuthenticated)
	return reply, nil
}

func (s *ReplyService) matchFAQs(ctx context.Context, text string) []domain.FAQ {
	if s.faqs == nil {
		return nil
	}
	matches, err := s.faqs.Search(ctx, text, faqMatchLimit)
	if err != nil {
		s.logger.Warn("faq search failed", zap.Error(err))
		return nil
	}
	return matches
}

func (s *ReplyService) askLLM(ctx context.Context, text string, req ReplyRequest, matches []domain.FAQ) (replyEnvelope, error) {
	if s.llm == nil {
		return replyEnvelope{}, errors.New("llm not configured")
	}
	raw, err := s.llm.Generate(ctx, buildSystemPrompt(req.Context, matches), buildUserPrompt(text, req.History))
	if err != nil {
		return replyEnvelope{}, fmt.Errorf("generate: %w", err)
	}
	env, ok := parseReplyEnvelope(raw)
	if !ok {
		return replyEnvelope{}, fmt.Errorf("unparseable llm response")
	}
	return env, nil
}

// fallbackReply contesta con la mejor FAQ o con un mensaje fijo por rol.
func (s *ReplyService) fallbackReply(sessionID string, role domain.Role, matches []domain.FAQ) domain.Reply {
	reply := domain.Reply{
		SessionID:  sessionID,
		IsFallback: true,
		Metadata:   map[string]any{"fallback": true},
	}
	if len(matches) > 0 {
		best := matches[0]
		reply.Text = best.Answer
		reply.Suggestions = faqQuestions(matches, 1)
		reply.Metadata["source"] = "faq"
		reply.Metadata["faq_id"] = best.ID
		return reply
	}
	reply.Text = offlineMessageFor(role)
	reply.Metadata["source"] = "canned"
	return reply
}

func (s *ReplyService) Categories(ctx context.Context) ([]domain.FAQCategory, error) {
	if s.faqs == nil {
		return []domain.FAQCategory{}, nil
	}
	categories, err := s.faqs.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list faq categories: %w", err)
	}
	return categories, nil
}

func (s *ReplyService) FAQsByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" || s.faqs == nil {
		return nil, ErrFAQNotFound
	}
	faqs, err := s.faqs.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	if len(faqs) == 0 {
		return nil, ErrFAQNotFound
	}
	return faqs, nil
}

// SearchFAQ devuelve una lista vacía para consultas en blanco.
func (s *ReplyService) SearchFAQ(ctx context.Context, query string) ([]domain.FAQ, error) {
	query = strings.TrimSpace(query)
	if query == "" || s.faqs == nil {
		return []domain.FAQ{}, nil
	}
	faqs, err := s.faqs.Search(ctx, query, faqSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search faqs: %w", err)
	}
	return faqs, nil
}

func buildSystemPrompt(sc domain.SessionContext, matches []domain.FAQ) string {
	var b strings.Builder
	b.WriteString("You are the help assistant of a university complaint management portal.\n")
	b.WriteString("Answer briefly and only about complaints, their process and the portal.\n")
	b.WriteString("Reply ONLY with a JSON object: {\"response\": string, \"suggestions\": [string], \"confidence\": number between 0 and 1}.\n\n")

	fmt.Fprintf(&b, "User role: %s\n", domain.ParseRole(string(sc.Role)))
	if sc.Name != "" {
		fmt.Fprintf(&b, "User name: %s\n", sc.Name)
	}
	if sc.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", sc.Department)
	}
	if sc.Page != "" {
		fmt.Fprintf(&b, "Current page: %s\n", sc.Page)
	}
	if !sc.IsAuthenticated {
		b.WriteString("The user is not signed in; filing and tracking complaints requires signing in.\n")
	}

	if len(matches) > 0 {
		b.WriteString("\nRelevant FAQ entries:\n")
		for _, f := range matches {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", f.Question, f.Answer)
		}
	}
	return b.String()
}

func buildUserPrompt(text string, history []domain.HistoryEntry) string {
	if len(history) > promptHistoryMax {
		history = history[len(history)-promptHistoryMax:]
	}
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, h := range history {
			speaker := "User"
			switch h.Type {
			case domain.MessageTypeBot:
				speaker = "Assistant"
			case domain.MessageTypeSystem:
				speaker = "System"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, h.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User message: %s", text)
	return b.String()
}

func faqQuestions(matches []domain.FAQ, skip int) []string {
	if len(matches) <= skip {
		return nil
	}
	out := make([]string, 0, len(matches)-skip)
	for _, f := range matches[skip:] {
		out = append(out, f.Question)
	}
	return out
}

func quickRepliesFor(role domain.Role) []string {
	switch role {
	case domain.RoleStudent:
		return []string{"File a new complaint", "Check my complaint status", "Browse FAQ"}
	case domain.RoleStaff:
		return []string{"Show assigned complaints", "Pending complaints", "Department statistics"}
	case domain.RoleAdmin:
		return []string{"System overview", "Unassigned complaints", "Manage users"}
	default:
		return []string{"How do I file a complaint?", "What is the complaint process?", "Contact support"}
	}
}

func actionsFor(role domain.Role, authenticated bool) []domain.Action {
	if !authenticated {
		return []domain.Action{{Type: "navigate", Label: "Sign in", Payload: map[string]any{"path": "/login"}}}
	}
	switch role {
	case domain.RoleStudent:
		return []domain.Action{{Type: "navigate", Label: "New complaint", Payload: map[string]any{"path": "/complaints/new"}}}
	case domain.RoleStaff:
		return []domain.Action{{Type: "navigate", Label: "Assigned complaints", Payload: map[string]any{"path": "/complaints/assigned"}}}
	case domain.RoleAdmin:
		return []domain.Action{{Type: "navigate", Label: "Dashboard", Payload: map[string]any{"path": "/admin"}}}
	default:
		return nil
	}
}

func offlineMessageFor(role domain.Role) string {
	const prefix = "I'm working in offline mode right now. "
	switch role {
	case domain.RoleStudent:
		return prefix + "You can still file a new complaint or check the status of your complaints from your dashboard."
	case domain.RoleStaff:
		return prefix + "You can review the complaints assigned to your department from the staff panel."
	case domain.RoleAdmin:
		return prefix + "System statistics and assignments are available from the admin dashboard."
	default:
		return prefix + "Please sign in to file or track a complaint, or browse the FAQ for common questions."
	}
}
