package channel

import (
	"testing"

	"shiny/service/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoriesMapsEveryActionType(t *testing.T) {
	channels := []Channel{{
		Identifier: "mixed",
		Actions: []Action{
			{Identifier: "ack", Title: "Ack", ActionType: ActionNone},
			{Identifier: "delete", Title: "Delete", ActionType: ActionDestructive},
			{Identifier: "open", Title: "Open", ActionType: ActionOpenApp},
			{Identifier: "reply", Title: "Reply", ActionType: ActionTextReply},
		},
	}}

	categories, err := BuildCategories(channels)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	want := []registry.ActionDescriptor{
		{Identifier: "ack", Title: "Ack", Type: "none", Directive: registry.DirectiveDefault},
		{Identifier: "delete", Title: "Delete", Type: "destructive", Directive: registry.DirectiveDestructive},
		{Identifier: "open", Title: "Open", Type: "open_app", Directive: registry.DirectiveForeground},
		{Identifier: "reply", Title: "Reply", Type: "text_reply", Directive: registry.DirectiveTextInput, TextInputPlaceholder: "Reply"},
	}
	assert.Equal(t, "mixed", categories[0].Identifier)
	assert.Equal(t, want, categories[0].Actions)
}

func TestBuildCategoriesRejectsUnknownType(t *testing.T) {
	_, err := BuildCategories([]Channel{
		{Identifier: "ok"},
		{Identifier: "bad", Actions: []Action{{Identifier: "x", ActionType: "teleport"}}},
	})

	var uerr *UnsupportedActionError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "bad", uerr.Channel)
	assert.Equal(t, "x", uerr.Action)
	assert.Equal(t, ActionType("teleport"), uerr.ActionType)
}

func TestBuildCategoriesIsRepeatable(t *testing.T) {
	channels := []Channel{{Identifier: "a", Actions: []Action{{Identifier: "r", Title: "R", ActionType: ActionTextReply}}}, Default()}

	first, err := BuildCategories(channels)
	require.NoError(t, err)
	second, err := BuildCategories(channels)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildCategoriesEmpty(t *testing.T) {
	categories, err := BuildCategories(nil)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
