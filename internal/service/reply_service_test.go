package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/llm"
)

type mockFAQRepo struct {
	categories []domain.FAQCategory
	byCategory map[string][]domain.FAQ
	search     []domain.FAQ
	err        error
	lastQuery  string
	lastLimit  int
}

func (m *mockFAQRepo) ListCategories(ctx context.Context) ([]domain.FAQCategory, error) {
	return m.categories, m.err
}

func (m *mockFAQRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byCategory[categoryID], nil
}

func (m *mockFAQRepo) Search(ctx context.Context, query string, limit int) ([]domain.FAQ, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.search, m.err
}

func sampleFAQs() []domain.FAQ {
	return []domain.FAQ{
		{ID: "f1", CategoryID: "c1", Question: "How do I file a complaint?", Answer: "Use the New complaint form."},
		{ID: "f2", CategoryID: "c1", Question: "How long does a review take?", Answer: "Usually five working days."},
	}
}

func TestReplyService_LLMReply(t *testing.T) {
	faqs := &mockFAQRepo{search: sampleFAQs()}
	model := &llm.MockClient{Response: "```json\n{\"response\":\"Use the form.\",\"suggestions\":[\"Track it\"],\"confidence\":0.9}\n```"}
	svc := NewReplyService(faqs, model, nil)

	reply, err := svc.Reply(context.Background(), ReplyRequest{
		Message: " how do I complain? ",
		Context: domain.SessionContext{Role: domain.RoleStudent, Department: "CS", Page: "/dashboard", IsAuthenticated: true},
		History: []domain.HistoryEntry{{Type: domain.MessageTypeBot, Content: "Hi!"}},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Text != "Use the form." || reply.IsFallback {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if reply.SessionID == "" {
		t.Fatalf("expected session id assigned")
	}
	if reply.Confidence == nil || *reply.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", reply.Confidence)
	}
	if len(reply.Suggestions) != 1 || reply.Suggestions[0] != "Track it" {
		t.Fatalf("unexpected suggestions %v", reply.Suggestions)
	}
	if len(reply.QuickReplies) == 0 || reply.QuickReplies[0] != "File a new complaint" {
		t.Fatalf("expected student quick replies, got %v", reply.QuickReplies)
	}
	if faqs.lastQuery != "how do I complain?" || faqs.lastLimit != faqMatchLimit {
		t.Fatalf("unexpected faq search %q/%d", faqs.lastQuery, faqs.lastLimit)
	}
	for _, want := range []string{"User role: student", "Department: CS", "Current page: /dashboard", "How do I file a complaint?"} {
		if !strings.Contains(model.LastSystem, want) {
			t.Fatalf("expected system prompt to contain %q, got %q", want, model.LastSystem)
		}
	}
	if !strings.Contains(model.LastPrompt, "Assistant: Hi!") || !strings.Contains(model.LastPrompt, "User message: how do I complain?") {
		t.Fatalf("unexpected user prompt %q", model.LastPrompt)
	}
}

func TestReplyService_KeepsSessionID(t *testing.T) {
	svc := NewReplyService(nil, &llm.MockClient{Response: `{"response":"ok"}`}, nil)
	reply, err := svc.Reply(context.Background(), ReplyRequest{Message: "hi", SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.SessionID != "sess-1" {
		t.Fatalf("expected session id kept, got %q", reply.SessionID)
	}
	if len(reply.Actions) != 1 || reply.Actions[0].Label != "Sign in" {
		t.Fatalf("expected sign in action for guest, got %+v", reply.Actions)
	}
}

func TestReplyService_FallbackToFAQ(t *testing.T) {
	svc := NewReplyService(&mockFAQRepo{search: sampleFAQs()}, &llm.MockClient{Err: errors.New("llm down")}, nil)
	reply, err := svc.Reply(context.Background(), ReplyRequest{Message: "complaint"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !reply.IsFallback || reply.Metadata["fallback"] != true {
		t.Fatalf("expected fallback reply, got %+v", reply)
	}
	if reply.Text != "Use the New complaint form." || reply.Metadata["faq_id"] != "f1" {
		t.Fatalf("expected best faq answer, got %+v", reply)
	}
	if len(reply.Suggestions) != 1 || reply.Suggestions[0] != "How long does a review take?" {
		t.Fatalf("expected remaining faq as suggestion, got %v", reply.Suggestions)
	}
}

func TestReplyService_FallbackCanned(t *testing.T) {
	cases := []struct {
		role domain.Role
		want string
	}{
		{domain.RoleGuest, "sign in"},
		{domain.RoleStudent, "file a new complaint"},
		{domain.RoleStaff, "staff panel"},
		{domain.RoleAdmin, "admin dashboard"},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			svc := NewReplyService(&mockFAQRepo{err: errors.New("db down")}, nil, nil)
			reply, err := svc.Reply(context.Background(), ReplyRequest{Message: "help", Context: domain.SessionContext{Role: tc.role}})
			if err != nil {
				t.Fatalf("reply: %v", err)
			}
			if !reply.IsFallback || reply.Metadata["source"] != "canned" {
				t.Fatalf("expected canned fallback, got %+v", reply)
			}
			if !strings.Contains(reply.Text, tc.want) {
				t.Fatalf("expected %q in %q", tc.want, reply.Text)
			}
		})
	}
}

func TestReplyService_UnparseableLLMFallsBack(t *testing.T) {
	svc := NewReplyService(nil, &llm.MockClient{Response: `{"unexpected":true}`}, nil)
	reply, err := svc.Reply(context.Background(), ReplyRequest{Message: "help"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !reply.IsFallback {
		t.Fatalf("expected fallback on unparseable llm output, got %+v", reply)
	}
}

func TestReplyService_EmptyMessage(t *testing.T) {
	svc := NewReplyService(nil, nil, nil)
	if _, err := svc.Reply(context.Background(), ReplyRequest{Message: "  "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestReplyService_FAQLookups(t *testing.T) {
	repo := &mockFAQRepo{
		categories: []domain.FAQCategory{{ID: "c1", Name: "Process", Count: 2}},
		byCategory: map[string][]domain.FAQ{"c1": sampleFAQs()},
		search:     sampleFAQs()[:1],
	}
	svc := NewReplyService(repo, nil, nil)
	ctx := context.Background()

	cats, err := svc.Categories(ctx)
	if err != nil || len(cats) != 1 {
		t.Fatalf("expected 1 category, got %v (%v)", cats, err)
	}
	faqs, err := svc.FAQsByCategory(ctx, "c1")
	if err != nil || len(faqs) != 2 {
		t.Fatalf("expected 2 faqs, got %v (%v)", faqs, err)
	}
	if _, err := svc.FAQsByCategory(ctx, "missing"); !errors.Is(err, ErrFAQNotFound) {
		t.Fatalf("expected ErrFAQNotFound, got %v", err)
	}
	found, err := svc.SearchFAQ(ctx, "file")
	if err != nil || len(found) != 1 || repo.lastLimit != faqSearchLimit {
		t.Fatalf("unexpected search result %v (%v), limit %d", found, err, repo.lastLimit)
	}
	empty, err := svc.SearchFAQ(ctx, " ")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil result for blank query, got %v (%v)", empty, err)
	}
}
