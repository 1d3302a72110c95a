package delivery

import "shiny/service/channel"

// Notification is what callers publish. Channel selects the action set;
// an empty or unknown channel uses the Default channel.
type Notification struct {
	Channel string            `json:"channel,omitempty"`
	Title   string            `json:"title,omitempty"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Rendered is a notification with its channel resolved.
type Rendered struct {
	Channel string            `json:"channel"`
	Title   string            `json:"title,omitempty"`
	Message string            `json:"message"`
	Actions []channel.Action  `json:"actions"`
	Data    map[string]string `json:"data,omitempty"`
}

func Render(n Notification, c channel.Channel) Rendered {
	actions := append([]channel.Action{}, c.Actions...)
	return Rendered{
		Channel: c.Identifier,
		Title:   n.Title,
		Message: n.Message,
		Actions: actions,
		Data:    n.Data,
	}
}
