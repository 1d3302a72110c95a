// Package channel owns notification channel definitions and keeps the native
// category registry in step with them.
package channel

import (
	"fmt"
	"regexp"
	"strings"
)

type ActionType string

const (
	ActionNone        ActionType = "none"
	ActionDestructive ActionType = "destructive"
	ActionOpenApp     ActionType = "open_app"
	ActionTextReply   ActionType = "text_reply"
)

type Action struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	ActionType ActionType `json:"actionType"`
}

type Channel struct {
	Identifier  string   `json:"identifier"`
	Description string   `json:"description,omitempty"`
	Actions     []Action `json:"actions"`
}

const (
	DefaultIdentifier = "default"
	maxIdentifierLen  = 64
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Default is the channel every rebuild injects. It is never persisted, so
// neither Remove nor Clear can take it away.
func Default() Channel {
	return Channel{
		Identifier:  DefaultIdentifier,
		Description: "Default",
		Actions:     []Action{},
	}
}

// Validate checks structure only. Unknown action types pass here and are
// rejected when the channel is translated for the registry.
func (c Channel) Validate() error {
	id := c.Identifier
	switch {
	case strings.TrimSpace(id) == "":
		return &ValidationError{Field: "identifier", Reason: "is required"}
	case len(id) > maxIdentifierLen:
		return &ValidationError{Field: "identifier", Reason: fmt.Sprintf("must be at most %d characters", maxIdentifierLen)}
	case !identifierPattern.MatchString(id):
		return &ValidationError{Field: "identifier", Reason: "may only contain letters, digits, '.', '_' and '-'"}
	case id == DefaultIdentifier:
		return &ValidationError{Field: "identifier", Reason: fmt.Sprintf("%q is reserved", DefaultIdentifier)}
	}

	seen := make(map[string]struct{}, len(c.Actions))
	for i, a := range c.Actions {
		field := fmt.Sprintf("actions[%d].identifier", i)
		if strings.TrimSpace(a.Identifier) == "" {
			return &ValidationError{Field: field, Reason: "is required"}
		}
		if _, dup := seen[a.Identifier]; dup {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("duplicates %q", a.Identifier)}
		}
		seen[a.Identifier] = struct{}{}
	}

	return nil
}

// Clone returns a copy that shares no slices with c.
func (c Channel) Clone() Channel {
	out := c
	out.Actions = append([]Action{}, c.Actions...)
	return out
}
