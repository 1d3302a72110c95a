package registry

import (
	"context"
	"sync"
)

// Memory is an in-process registry. It remembers the last applied set.
type Memory struct {
	mu           sync.RWMutex
	categories   []Category
	replacements int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetCategories(ctx context.Context, categories []Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = Clone(categories)
	m.replacements++
	return nil
}

func (m *Memory) Categories() []Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Clone(m.categories)
}

// Replacements counts successful SetCategories calls.
func (m *Memory) Replacements() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replacements
}
