package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/sharetube/watchtogether/internal/repository/upload"
)

type object struct {
	data []byte
	info upload.ObjectInfo
}

// store keeps uploads in process memory. Used when no NATS server is configured.
type store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *store {
	return &store{objects: make(map[string]object)}
}

func (s *store) Put(_ context.Context, name string, data []byte, contentType string) (*upload.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := upload.ObjectInfo{
		Name:        name,
		Size:        uint64(len(data)),
		ContentType: contentType,
		ModTime:     time.Now(),
	}
	s.objects[name] = object{data: append([]byte(nil), data...), info: info}

	return &info, nil
}

func (s *store) Get(_ context.Context, name string) ([]byte, *upload.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[name]
	if !ok {
		return nil, nil, upload.ErrObjectNotFound
	}
	info := obj.info

	return obj.data, &info, nil
}
