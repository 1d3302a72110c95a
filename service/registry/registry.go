// Package registry models the operating system's notification category
// registry. The registry accepts only a complete replacement set of
// categories: there is no read-back and no incremental update.
package registry

import "context"

// Directive tells the platform how to render and dispatch an action.
type Directive string

const (
	DirectiveDefault     Directive = "default"
	DirectiveDestructive Directive = "destructive"
	DirectiveForeground  Directive = "foreground"
	DirectiveTextInput   Directive = "text_input"
)

type ActionDescriptor struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Directive  Directive `json:"directive"`
	// TextInputPlaceholder is only set for DirectiveTextInput.
	TextInputPlaceholder string `json:"textInputPlaceholder,omitempty"`
}

type Category struct {
	Identifier string             `json:"identifier"`
	Actions    []ActionDescriptor `json:"actions"`
}

type Registry interface {
	// SetCategories replaces the whole registered set with categories.
	SetCategories(ctx context.Context, categories []Category) error
}

// Clone returns a deep copy so callers cannot mutate a registry's state.
func Clone(categories []Category) []Category {
	if categories == nil {
		return nil
	}
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{
			Identifier: c.Identifier,
			Actions:    append(make([]ActionDescriptor, 0, len(c.Actions)), c.Actions...),
		}
	}
	return out
}
