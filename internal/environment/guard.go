package environment

import "strings"

// Tag is a normalized deployment environment.
type Tag string

const (
	Local      Tag = "local"
	Testing    Tag = "testing"
	Staging    Tag = "staging"
	Production Tag = "production"
	Unknown    Tag = "unknown"
)

// Action is a destructive operation class checked by the guard.
type Action string

const (
	ActionDrop     Action = "drop"
	ActionTruncate Action = "truncate"
	ActionReset    Action = "reset"
)

var aliases = map[string]Tag{
	"local":       Local,
	"dev":         Local,
	"development": Local,
	"testing":     Testing,
	"test":        Testing,
	"ci":          Testing,
	"staging":     Staging,
	"stage":       Staging,
	"production":  Production,
	"prod":        Production,
	"live":        Production,
}

// Classify maps a raw environment name to a Tag. Unrecognized names are Unknown.
func Classify(raw string) Tag {
	if tag, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return tag
	}
	return Unknown
}

// PermitDestructive reports whether action may run in tag.
// Production is always refused and reset is local-only.
func PermitDestructive(tag Tag, action Action) bool {
	switch tag {
	case Local:
		return true
	case Testing:
		return action == ActionDrop || action == ActionTruncate
	default:
		return false
	}
}

// Guard binds a classified environment to its permission checks.
type Guard struct {
	tag Tag
}

// NewGuard classifies raw and returns a guard for it.
func NewGuard(raw string) *Guard {
	return &Guard{tag: Classify(raw)}
}

func (g *Guard) Tag() Tag {
	return g.tag
}

func (g *Guard) Permit(action Action) bool {
	return PermitDestructive(g.tag, action)
}

// Refusal returns the operator message for a denied action.
func (g *Guard) Refusal(action Action) string {
	if g.tag == Production {
		return "This command cannot be run in the production environment."
	}
	if action == ActionReset {
		return "This command only works in the local environment."
	}
	return "This command cannot be run in the " + string(g.tag) + " environment."
}
