package domain

import (
	"strings"

	"table-service/internal/common/apperr"
)

// TicketAction is a recognised kitchen intent. Raw tokens are turned into one of these
// at the boundary and never reach the state machine as strings.
type TicketAction int

const (
	ActionUnknown TicketAction = iota
	ActionStart
	ActionReady
	ActionServe
	ActionCancel
)

func (a TicketAction) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionReady:
		return "ready"
	case ActionServe:
		return "served"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

var actionTokens = map[string]TicketAction{
	"start":       ActionStart,
	"begin":       ActionStart,
	"in-progress": ActionStart,
	"inprogress":  ActionStart,
	"started":     ActionStart,

	"done":      ActionReady,
	"ready":     ActionReady,
	"finish":    ActionReady,
	"completed": ActionReady,
	"complete":  ActionReady,

	"served":    ActionServe,
	"serve":     ActionServe,
	"delivered": ActionServe,

	"cancel":           ActionCancel,
	"cancelled":        ActionCancel,
	"cancelled-by-kds": ActionCancel,
	"void":             ActionCancel,
}

// ParseTicketAction normalizes a case-insensitive action token.
func ParseTicketAction(token string) (TicketAction, error) {
	a, ok := actionTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return ActionUnknown, apperr.WithMetadata(apperr.CodeInvalidAction, "invalid action",
			map[string]string{"action": token})
	}
	return a, nil
}
