package registry

import (
	"context"
	"fmt"
)

// Multi applies the same set to every registry in order and stops at the
// first failure. Registries before the failing one keep the new set.
type Multi []Registry

func (m Multi) SetCategories(ctx context.Context, categories []Category) error {
	for i, r := range m {
		if err := r.SetCategories(ctx, categories); err != nil {
			return fmt.Errorf("registry %d (%T): %w", i, r, err)
		}
	}
	return nil
}
