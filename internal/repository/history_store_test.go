package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKV struct {
	data       map[string][]byte
	lastSetKey string
	lastSetTTL time.Duration
	lastDel    []string

	getErr error
	setErr error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{data: make(map[string][]byte)}
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	val, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(val))
	return cmd
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.data[key] = append([]byte(nil), value.([]byte)...)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	for _, k := range keys {
		delete(m.data, k)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func exerciseHistoryStore(t *testing.T, store HistoryStore) {
	t.Helper()
	ctx := context.Background()

	blob, err := store.Load(ctx)
	if err != nil || blob != nil {
		t.Fatalf("expected empty slot nil,nil; got %q,%v", blob, err)
	}

	if err := store.Save(ctx, []byte(`[{"id":"m1"}]`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	blob, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(blob) != `[{"id":"m1"}]` {
		t.Fatalf("unexpected blob %q", blob)
	}

	if err := store.Save(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	blob, _ = store.Load(ctx)
	if string(blob) != `[]` {
		t.Fatalf("expected overwrite, got %q", blob)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	blob, err = store.Load(ctx)
	if err != nil || blob != nil {
		t.Fatalf("expected cleared slot nil,nil; got %q,%v", blob, err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear should be no-op, got %v", err)
	}
}

func TestMemoryHistoryStore(t *testing.T) {
	exerciseHistoryStore(t, NewMemoryHistoryStore())
}

func TestFileHistoryStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	exerciseHistoryStore(t, NewFileHistoryStore(path))
}

func TestRedisHistoryStore(t *testing.T) {
	mock := newMockRedisKV()
	store := newRedisHistoryStore(mock, " widget ", 0)
	exerciseHistoryStore(t, store)

	if mock.lastSetKey != "chat:history:widget" {
		t.Fatalf("unexpected key %q", mock.lastSetKey)
	}
	if mock.lastSetTTL != 24*time.Hour {
		t.Fatalf("expected default ttl 24h, got %v", mock.lastSetTTL)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "chat:history:widget" {
		t.Fatalf("unexpected del keys %+v", mock.lastDel)
	}
}

func TestRedisHistoryStore_Errors(t *testing.T) {
	mock := newMockRedisKV()
	mock.getErr = errors.New("get failed")
	mock.setErr = errors.New("set failed")
	store := newRedisHistoryStore(mock, "", time.Hour)

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if err := store.Save(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected save error")
	}
	if store.key != "chat:history:default" {
		t.Fatalf("expected default slot key, got %q", store.key)
	}
}

func TestNewHistoryStore(t *testing.T) {
	if _, err := NewHistoryStore("memory", "", "", nil, 0); err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, err := NewHistoryStore("file", filepath.Join(t.TempDir(), "h.json"), "", nil, 0); err != nil {
		t.Fatalf("file driver: %v", err)
	}
	if _, err := NewHistoryStore("file", " ", "", nil, 0); !errors.Is(err, ErrInvalidHistoryDriver) {
		t.Fatalf("expected ErrInvalidHistoryDriver for empty path, got %v", err)
	}
	if _, err := NewHistoryStore("redis", "", "s", nil, 0); !errors.Is(err, ErrInvalidHistoryDriver) {
		t.Fatalf("expected ErrInvalidHistoryDriver without client, got %v", err)
	}
	if _, err := NewHistoryStore("sqlite", "", "", nil, 0); !errors.Is(err, ErrInvalidHistoryDriver) {
		t.Fatalf("expected ErrInvalidHistoryDriver for unknown driver, got %v", err)
	}
}
