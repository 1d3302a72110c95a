package channel

import "shiny/service/registry"

// BuildCategories translates channels into the registry's descriptor set,
// one category per channel with actions in their original order. It has no
// side effects, so a rebuild can always be repeated safely.
func BuildCategories(channels []Channel) ([]registry.Category, error) {
	categories := make([]registry.Category, 0, len(channels))
	for _, c := range channels {
		actions := make([]registry.ActionDescriptor, 0, len(c.Actions))
		for _, a := range c.Actions {
			native, err := nativeAction(c.Identifier, a)
			if err != nil {
				return nil, err
			}
			actions = append(actions, native)
		}
		categories = append(categories, registry.Category{
			Identifier: c.Identifier,
			Actions:    actions,
		})
	}
	return categories, nil
}

func nativeAction(channelID string, a Action) (registry.ActionDescriptor, error) {
	d := registry.ActionDescriptor{
		Identifier: a.Identifier,
		Title:      a.Title,
		Type:       string(a.ActionType),
	}

	switch a.ActionType {
	case ActionNone:
		d.Directive = registry.DirectiveDefault
	case ActionDestructive:
		d.Directive = registry.DirectiveDestructive
	case ActionOpenApp:
		d.Directive = registry.DirectiveForeground
	case ActionTextReply:
		d.Directive = registry.DirectiveTextInput
		d.TextInputPlaceholder = a.Title
	default:
		return registry.ActionDescriptor{}, &UnsupportedActionError{
			Channel:    channelID,
			Action:     a.Identifier,
			ActionType: a.ActionType,
		}
	}

	return d, nil
}
