// Package agent handles the conversational side of plan delivery: agent
// replies, pending action plans awaiting confirmation, and the confirmation
// itself. The transport that fetches replies is not part of this package.
package agent

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ReplyType classifies an agent reply.
type ReplyType string

const (
	ReplyActionPlan    ReplyType = "action_plan"
	ReplyClarification ReplyType = "clarification"
	ReplyContent       ReplyType = "content"
	ReplyMessage       ReplyType = "message"
)

// Messages shown when the server omits one.
const (
	ConfirmPrompt        = "Reply 'Yes' to continue."
	DefaultPlanMessage   = "I'm about to execute an action plan."
	DefaultClarification = "The agent could not match your request to any supported intents."
)

var (
	ErrMalformedReply = errors.New("error parsing server response")
	ErrInvalidReply   = errors.New("invalid agent response")
)

// Reply is a classified agent reply.
type Reply struct {
	Type ReplyType

	// Message is the text to show the user.
	Message string

	// PlanJSON holds the action plan of an action_plan reply: the inner
	// action_plan object when present, the whole reply otherwise.
	PlanJSON string

	AppID         string
	NextSessionID string
}

// ParseReply classifies a raw agent reply. A reply is, in order of
// precedence, an action plan, a clarification, plain content or a generic
// message; anything else is invalid.
func ParseReply(raw []byte) (Reply, error) {
	if !gjson.ValidBytes(raw) {
		return Reply{}, ErrMalformedReply
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Reply{}, ErrMalformedReply
	}

	r := Reply{
		AppID:         str(doc, "app_id"),
		NextSessionID: str(doc, "next_session_id"),
	}
	message := str(doc, "message")

	switch str(doc, "type") {
	case string(ReplyActionPlan):
		r.Type = ReplyActionPlan
		if inner := doc.Get("action_plan"); inner.IsObject() {
			r.PlanJSON = inner.Raw
		} else {
			r.PlanJSON = strings.TrimSpace(doc.Raw)
		}
		if message == "" {
			message = DefaultPlanMessage
		}
		r.Message = message + "\n" + ConfirmPrompt
		return r, nil

	case string(ReplyClarification):
		r.Type = ReplyClarification
		r.Message = message
		if r.Message == "" {
			r.Message = DefaultClarification
		}
		return r, nil
	}

	if c := doc.Get("content"); c.Exists() && c.Type != gjson.Null {
		r.Type = ReplyContent
		r.Message = c.String()
		return r, nil
	}
	if m := doc.Get("message"); m.Exists() && m.Type != gjson.Null {
		r.Type = ReplyMessage
		r.Message = m.String()
		return r, nil
	}
	return Reply{}, ErrInvalidReply
}

func str(doc gjson.Result, path string) string {
	v := doc.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// IsAffirmative reports whether a user answer confirms a pending plan.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "sure", "okay", "ok":
		return true
	}
	return false
}
