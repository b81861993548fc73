package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"complaint-chat/internal/config"
	"complaint-chat/internal/domain"
	"complaint-chat/internal/service"
)

func TestParseLogin(t *testing.T) {
	identity, err := parseLogin("u1:Student:CS:Ana Perez")
	if err != nil {
		t.Fatalf("parse login: %v", err)
	}
	want := domain.Identity{UserID: "u1", Role: domain.RoleStudent, Department: "CS", Name: "Ana Perez"}
	if identity != want {
		t.Fatalf("expected %+v, got %+v", want, identity)
	}
	if _, err := parseLogin("only-uid"); err == nil {
		t.Fatalf("expected error for missing role")
	}
}

func TestResolveIdentity(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", JWTAccessTTLMinutes: 5}

	identity, token, err := resolveIdentity(cfg, "", "u1:staff:Registry")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleStaff || identity.Department != "Registry" || token == "" {
		t.Fatalf("unexpected identity %+v token %q", identity, token)
	}

	again, sameToken, err := resolveIdentity(cfg, token, "")
	if err != nil || again.UserID != "u1" || sameToken != token {
		t.Fatalf("expected token round trip, got %+v (%v)", again, err)
	}

	guest, _, err := resolveIdentity(&config.Config{}, "", "")
	if err != nil || guest != nil {
		t.Fatalf("expected guest without flags, got %+v (%v)", guest, err)
	}

	if _, _, err := resolveIdentity(&config.Config{}, "", "u1:student"); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestWriterClipboard(t *testing.T) {
	var buf bytes.Buffer
	c := &writerClipboard{out: &buf}
	if err := c.WriteText(context.Background(), "hola"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "hola") {
		t.Fatalf("expected text on writer, got %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "clip.txt")
	c = newClipboard(path)
	if err := c.WriteText(context.Background(), "copied"); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "copied" {
		t.Fatalf("expected file content, got %q (%v)", data, err)
	}
}

func TestReaderSpeech(t *testing.T) {
	var out bytes.Buffer
	s := newReaderSpeech(bufio.NewReader(strings.NewReader("  track my complaint \n")), &out)
	text, err := s.Listen(context.Background())
	if err != nil || text != "track my complaint" {
		t.Fatalf("expected dictated text, got %q (%v)", text, err)
	}

	if _, err := s.Listen(context.Background()); !errors.Is(err, service.ErrSpeechUnavailable) {
		t.Fatalf("expected ErrSpeechUnavailable on EOF, got %v", err)
	}
}

func TestRenderer(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out)
	now := time.Now()
	msgs := []domain.Message{
		{ID: "1", Type: domain.MessageTypeUser, Content: "hello", Timestamp: now},
		{ID: "2", Type: domain.MessageTypeBot, Content: "hi there", Timestamp: now, IsFallback: true},
	}

	r.render(service.SessionSnapshot{Messages: msgs, UI: domain.UIState{UnreadCount: 1}})
	if !strings.Contains(out.String(), "[1 sin leer]") || strings.Contains(out.String(), "hello") {
		t.Fatalf("expected only unread badge while closed, got %q", out.String())
	}

	out.Reset()
	r.render(service.SessionSnapshot{Messages: msgs, UI: domain.UIState{IsOpen: true, Suggestions: []string{"Track"}}})
	got := out.String()
	for _, want := range []string{"[widget open]", "1. Tu > hello", "2. Asistente > hi there (modo sin conexion)", "sugerencias: Track"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}

	out.Reset()
	rated := append([]domain.Message(nil), msgs...)
	rated[1].Rating = domain.RatingUp
	r.render(service.SessionSnapshot{Messages: rated, UI: domain.UIState{IsOpen: true}})
	if !strings.Contains(out.String(), "[mensaje 2 valorado: up]") || strings.Contains(out.String(), "hello") {
		t.Fatalf("expected rating notice only, got %q", out.String())
	}
}
