package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory keeps uploads in a map. Contents are lost on exit.
type Memory struct {
	mu    sync.RWMutex
	files map[string]Object
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string]Object)}
}

func (m *Memory) Save(ctx context.Context, obj *Object) error {
	if err := ValidName(obj.Name); err != nil {
		return err
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	if cp.ModTime.IsZero() {
		cp.ModTime = time.Now()
	}
	m.mu.Lock()
	m.files[obj.Name] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Open(ctx context.Context, name string) (*Object, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.files[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return &obj, nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(m.files, name)
	return nil
}
