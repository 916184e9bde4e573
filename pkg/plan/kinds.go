package plan

import "strings"

// ActionKind is the normalized action of a step.
type ActionKind string

const (
	ActionSleep      ActionKind = "sleep"
	ActionClick      ActionKind = "click"
	ActionInputText  ActionKind = "input-text"
	ActionScroll     ActionKind = "scroll"
	ActionScrollDown ActionKind = "scroll-down"
	ActionSwipeLeft  ActionKind = "swipe-left"
	ActionSwipeRight ActionKind = "swipe-right"
	ActionGlobalBack ActionKind = "global-back"
	ActionUnknown    ActionKind = "unknown"
)

// actionAliases maps every accepted normalized spelling to its kind.
var actionAliases = map[string]ActionKind{
	"sleep": ActionSleep,

	"click": ActionClick,

	"input":      ActionInputText,
	"input_text": ActionInputText,
	"inputtext":  ActionInputText,
	"input-text": ActionInputText,
	"type_text":  ActionInputText,
	"type":       ActionInputText,
	"enter_text": ActionInputText,

	"scroll": ActionScroll,

	"scroll_down": ActionScrollDown,
	"scroll-down": ActionScrollDown,
	"scrolldown":  ActionScrollDown,

	"swipe_left": ActionSwipeLeft,
	"swipe-left": ActionSwipeLeft,
	"swipeleft":  ActionSwipeLeft,

	"swipe_right": ActionSwipeRight,
	"swipe-right": ActionSwipeRight,
	"swiperight":  ActionSwipeRight,

	"global_back": ActionGlobalBack,
	"global-back": ActionGlobalBack,
	"back":        ActionGlobalBack,
}

// Zero-width characters are stripped from raw action strings; NBSP becomes a space.
var normalizer = strings.NewReplacer(
	"\u00a0", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// NormalizeAction cleans a raw action string the way plan generators emit it.
func NormalizeAction(raw string) string {
	return strings.ToLower(strings.TrimSpace(normalizer.Replace(raw)))
}

// ParseActionKind maps a raw action string to its kind. Unrecognized input
// yields ActionUnknown.
func ParseActionKind(raw string) ActionKind {
	if kind, ok := actionAliases[NormalizeAction(raw)]; ok {
		return kind
	}
	return ActionUnknown
}

// RequiresNode reports whether the action needs a resolved target node.
func (k ActionKind) RequiresNode() bool {
	switch k {
	case ActionClick, ActionInputText, ActionScroll:
		return true
	default:
		return false
	}
}

// IsScroll reports whether the action scrolls content, which needs extra
// settle time before the next step.
func (k ActionKind) IsScroll() bool {
	return k == ActionScroll || k == ActionScrollDown
}

// IsKnown reports whether k is one of the defined kinds other than unknown.
func (k ActionKind) IsKnown() bool {
	switch k {
	case ActionSleep, ActionClick, ActionInputText, ActionScroll, ActionScrollDown,
		ActionSwipeLeft, ActionSwipeRight, ActionGlobalBack:
		return true
	default:
		return false
	}
}
