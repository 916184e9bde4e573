package plan

import (
	"strings"
	"testing"

	"github.com/labcitrus/avagen-runner/pkg/query"
)

func TestPlanIsEmpty(t *testing.T) {
	var nilPlan *Plan
	if !nilPlan.IsEmpty() {
		t.Error("nil plan should be empty")
	}
	if !(&Plan{MethodName: "m"}).IsEmpty() {
		t.Error("plan without steps should be empty")
	}
	if !(&Plan{Steps: []Step{}}).IsEmpty() {
		t.Error("plan with empty steps should be empty")
	}
	if (&Plan{Steps: []Step{{ActionRaw: "sleep"}}}).IsEmpty() {
		t.Error("plan with a step should not be empty")
	}
}

func TestStepKindAndQuery(t *testing.T) {
	s := Step{ActionRaw: " Input_Text ", NodeQuery: "  "}
	if s.Kind() != ActionInputText {
		t.Errorf("Kind() = %s", s.Kind())
	}
	if s.HasNodeQuery() {
		t.Error("blank node query should not count")
	}
}

func TestStepString(t *testing.T) {
	s := Step{
		ActionRaw: "input_text",
		NodeQuery: `withId("amount")`,
		Matchers:  []FieldMatcher{{Type: "id", Value: "amount"}},
		Text:      String("42"),
		Millis:    Millis(10),
	}
	got := s.String()
	for _, want := range []string{`action="input_text"`, `query="withId(\"amount\")"`, `id default "amount"`, `text="42"`, "millis=10"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %s, missing %s", got, want)
		}
	}
}

func TestFieldMatcherQuery(t *testing.T) {
	tests := []struct {
		name    string
		m       FieldMatcher
		want    string
		wantErr bool
	}{
		{"default mode", FieldMatcher{Type: "text", Value: "Statistics"}, `withText(equalsIgnoreCase("Statistics"))`, false},
		{"unknown mode", FieldMatcher{Type: "id", Value: "title", Mode: "fuzzy"}, `withId(equalsIgnoreCase("title"))`, false},
		{"contains", FieldMatcher{Type: "contentDescription", Value: "More", Mode: "contains"}, `withContentDescription(containsIgnoreCase("More"))`, false},
		{"startsWith", FieldMatcher{Type: "className", Value: "android.widget", Mode: "startsWith"}, `withClassName(startsWithIgnoreCase("android.widget"))`, false},
		{"equals", FieldMatcher{Type: "text", Value: "Statistics", Mode: "equals"}, `withText(equalsIgnoreCase("Statistics"))`, false},
		{"endsWith", FieldMatcher{Type: "className", Value: "Button", Mode: "endsWith"}, `withClassName(endsWithIgnoreCase("Button"))`, false},
		{"regex", FieldMatcher{Type: "text", Value: `^\d+$`, Mode: "regex"}, `withText(regex("^\\d+$"))`, false},
		{"bad regex", FieldMatcher{Type: "text", Value: "(", Mode: "regex"}, "", true},
		{"bad type", FieldMatcher{Type: "bounds", Value: "x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.m.Query()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Query() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && q.String() != tt.want {
				t.Errorf("Query() = %s, want %s", q, tt.want)
			}
		})
	}
}

func TestFieldMatcherDefaulted(t *testing.T) {
	_, defaulted, err := FieldMatcher{Type: "text", Value: "x", Mode: "nope"}.StringMatcher()
	if err != nil || !defaulted {
		t.Errorf("expected defaulted matcher, got defaulted=%v err=%v", defaulted, err)
	}
	sm, defaulted, err := FieldMatcher{Type: "text", Value: "x", Mode: "equals"}.StringMatcher()
	if err != nil || defaulted {
		t.Errorf("expected explicit matcher, got defaulted=%v err=%v", defaulted, err)
	}
	if sm.Mode() != query.ModeEqualsIgnoreCase {
		t.Errorf("mode = %v", sm.Mode())
	}
}
