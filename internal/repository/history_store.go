package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryStore es un único slot clave-valor donde se guarda el transcript
// serializado. Load devuelve nil sin error cuando el slot está vacío.
type HistoryStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Clear(ctx context.Context) error
}

var ErrInvalidHistoryDriver = errors.New("invalid history driver")

type memoryHistoryStore struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryHistoryStore() HistoryStore {
	return &memoryHistoryStore{}
}

func (s *memoryHistoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), s.blob...), nil
}

func (s *memoryHistoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	return nil
}

func (s *memoryHistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}

// fileHistoryStore guarda el slot en un archivo local, equivalente al
// localStorage del navegador para el cliente de terminal.
type fileHistoryStore struct {
	mu   sync.Mutex
	path string
}

func NewFileHistoryStore(path string) HistoryStore {
	return &fileHistoryStore{path: path}
}

func (s *fileHistoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return blob, err
}

func (s *fileHistoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileHistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisHistoryStore struct {
	client redisKV
	key    string
	ttl    time.Duration
}

// NewRedisHistoryStore guarda el slot en Redis con TTL igual a la ventana de retención.
func NewRedisHistoryStore(client *redis.Client, slot string, ttl time.Duration) HistoryStore {
	if client == nil {
		return nil
	}
	return newRedisHistoryStore(client, slot, ttl)
}

func newRedisHistoryStore(client redisKV, slot string, ttl time.Duration) *redisHistoryStore {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		slot = "default"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisHistoryStore{
		client: client,
		key:    "chat:history:" + slot,
		ttl:    ttl,
	}
}

func (s *redisHistoryStore) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *redisHistoryStore) Save(ctx context.Context, blob []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.key, blob, s.ttl).Err()
}

func (s *redisHistoryStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.key).Err()
}

// NewHistoryStore elige el driver según configuración.
func NewHistoryStore(driver, path, slot string, client *redis.Client, ttl time.Duration) (HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemoryHistoryStore(), nil
	case "file":
		if strings.TrimSpace(path) == "" {
			return nil, ErrInvalidHistoryDriver
		}
		return NewFileHistoryStore(path), nil
	case "redis":
		if client == nil {
			return nil, ErrInvalidHistoryDriver
		}
		return NewRedisHistoryStore(client, slot, ttl), nil
	default:
		return nil, ErrInvalidHistoryDriver
	}
}
