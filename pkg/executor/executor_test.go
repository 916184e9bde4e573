package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/driver/mock"
	"github.com/labcitrus/avagen-runner/pkg/plan"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// fakeSleeper advances virtual time instead of blocking.
type fakeSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return nil
}

func (s *fakeSleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

// screen builds:
//
//	FrameLayout
//	  Button "A"        (clickable)
//	  TextView "B"      (not clickable)
//	  EditText amount   (editable)
//	  TextView label
func screen() (root, a, b, amount, label *uitree.Element) {
	a = uitree.NewElement(uitree.Attributes{
		ClassName: "android.widget.Button", ResourceID: "app:id/a", Text: "A", Clickable: true,
		Bounds: uitree.Bounds{X: 0, Y: 0, Width: 100, Height: 50},
	})
	b = uitree.NewElement(uitree.Attributes{
		ClassName: "android.widget.TextView", ResourceID: "app:id/b", Text: "B",
		Bounds: uitree.Bounds{X: 100, Y: 200, Width: 200, Height: 40},
	})
	amount = uitree.NewElement(uitree.Attributes{
		ClassName: "android.widget.EditText", ResourceID: "app:id/amount", Editable: true,
		Bounds: uitree.Bounds{X: 0, Y: 300, Width: 500, Height: 60},
	})
	label = uitree.NewElement(uitree.Attributes{
		ClassName: "android.widget.TextView", ResourceID: "app:id/label", Text: "Amount",
	})
	root = uitree.NewElement(uitree.Attributes{
		ClassName: "android.widget.FrameLayout", ResourceID: "app:id/content",
		Bounds: uitree.Bounds{X: 0, Y: 0, Width: 1080, Height: 1920},
	}).Append(a, b, amount, label)
	return
}

func newTestExecutor(platform core.Platform) (*Executor, *fakeSleeper) {
	sl := &fakeSleeper{}
	nop := zerolog.Nop()
	return New(platform, Config{Sleeper: sl, Logger: &nop}), sl
}

func click(expr string) plan.Step { return plan.Step{ActionRaw: "click", NodeQuery: expr} }

func TestExecutePlan_PacingAroundScroll(t *testing.T) {
	root, a, b, _, _ := screen()
	platform := mock.New(root, mock.Config{})
	exec, sl := newTestExecutor(platform)

	p := &plan.Plan{MethodName: "m", Steps: []plan.Step{
		click(`withText("A")`),
		{ActionRaw: "scroll_down"},
		click(`withText("B")`),
	}}
	result := exec.ExecutePlan(context.Background(), "app", p)

	want := []time.Duration{DefaultStepDelay, ScrollSettleDelay, DefaultStepDelay}
	if diff := cmp.Diff(want, sl.durations()); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if result.Steps[0].PaceAfter != DefaultStepDelay {
		t.Errorf("PaceAfter[0] = %v", result.Steps[0].PaceAfter)
	}
	if result.Steps[1].PaceAfter != ScrollSettleDelay+DefaultStepDelay {
		t.Errorf("PaceAfter[1] = %v", result.Steps[1].PaceAfter)
	}
	if result.Steps[2].PaceAfter != 0 {
		t.Errorf("last step must not be paced, got %v", result.Steps[2].PaceAfter)
	}

	calls := platform.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 primitive calls, got %d", len(calls))
	}
	if calls[0].Op != mock.OpClick || calls[0].Node != uitree.Node(a) {
		t.Errorf("first call should click A, got %+v", calls[0])
	}
	if calls[1].Op != mock.OpSwipe {
		t.Errorf("second call should swipe, got %s", calls[1].Op)
	}
	// B is not clickable: tapped at its bounds centre.
	cx, cy := b.Bounds().Center()
	if calls[2].Op != mock.OpTap || calls[2].X1 != cx || calls[2].Y1 != cy {
		t.Errorf("third call should tap B centre, got %+v", calls[2])
	}

	if result.State != core.RunCompleted || exec.State() != core.RunCompleted {
		t.Errorf("state = %s / %s", result.State, exec.State())
	}
	if !result.Success() {
		t.Error("run should succeed")
	}
}

func TestExecutePlan_NoPacingBeforeSleep(t *testing.T) {
	root, _, _, _, _ := screen()
	exec, sl := newTestExecutor(mock.New(root, mock.Config{}))

	p := &plan.Plan{Steps: []plan.Step{
		click(`withText("A")`),
		{ActionRaw: "sleep", Millis: plan.Millis(2500)},
		{ActionRaw: "Sleep"},
		{ActionRaw: "sleep", Millis: plan.Millis(-5)},
	}}
	exec.ExecutePlan(context.Background(), "app", p)

	want := []time.Duration{2500 * time.Millisecond, DefaultSleep, DefaultSleep}
	if diff := cmp.Diff(want, sl.durations()); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutePlan_EmptyAndNil(t *testing.T) {
	root, _, _, _, _ := screen()
	platform := mock.New(root, mock.Config{})
	exec, sl := newTestExecutor(platform)

	p := &plan.Plan{MethodName: "empty", Steps: []plan.Step{}}
	if !p.IsEmpty() {
		t.Fatal("plan should report empty")
	}
	result := exec.ExecutePlan(context.Background(), "app", p)
	if result.State != core.RunAborted || exec.State() != core.RunAborted {
		t.Errorf("empty plan should abort, got %s", result.State)
	}
	if result.Error != core.ErrEmptyPlan.Error() {
		t.Errorf("Error = %q", result.Error)
	}

	result = exec.ExecutePlan(context.Background(), "app", nil)
	if result.State != core.RunAborted || result.Error != core.ErrNilPlan.Error() {
		t.Errorf("nil plan should abort, got %s %q", result.State, result.Error)
	}

	if len(platform.Calls()) != 0 {
		t.Errorf("expected zero actions, got %d", len(platform.Calls()))
	}
	if len(sl.durations()) != 0 {
		t.Errorf("expected zero delays, got %v", sl.durations())
	}
}

func TestExecutePlan_FallbackToMatchers(t *testing.T) {
	root, a, _, _, _ := screen()
	platform := mock.New(root, mock.Config{})
	exec, _ := newTestExecutor(platform)

	p := &plan.Plan{Steps: []plan.Step{{
		ActionRaw: "click",
		NodeQuery: `tapSomething(("`,
		Matchers:  []plan.FieldMatcher{{Type: "id", Value: "a", Mode: "equalsIgnoreCase"}},
	}}}
	result := exec.ExecutePlan(context.Background(), "app", p)

	if result.Steps[0].Status != core.StatusPassed {
		t.Fatalf("step status = %s (%s)", result.Steps[0].Status, result.Steps[0].Error)
	}
	calls := platform.CallsOf(mock.OpClick)
	if len(calls) != 1 || calls[0].Node != uitree.Node(a) {
		t.Errorf("expected click on A via matchers, got %+v", calls)
	}
}

func TestExecutePlan_FailuresDoNotStopPlan(t *testing.T) {
	root, _, _, amount, _ := screen()
	platform := mock.New(root, mock.Config{})
	exec, _ := newTestExecutor(platform)

	p := &plan.Plan{Steps: []plan.Step{
		click(`withText("Nowhere")`),
		{ActionRaw: "long_press"},
		{ActionRaw: "input_text", NodeQuery: `withId("label")`, Text: plan.String("5")},
		{ActionRaw: "type", NodeQuery: `withId("amount")`},
		{ActionRaw: "enter_text", NodeQuery: `withId("amount")`, Text: plan.String("42")},
		{ActionRaw: "back"},
	}}
	result := exec.ExecutePlan(context.Background(), "app", p)

	got := make([]core.StepStatus, 0, len(result.Steps))
	for _, s := range result.Steps {
		got = append(got, s.Status)
	}
	want := []core.StepStatus{
		core.StatusSkipped,
		core.StatusSkipped,
		core.StatusFailed,
		core.StatusSkipped,
		core.StatusPassed,
		core.StatusPassed,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}

	codes := []string{result.Steps[0].Code, result.Steps[1].Code, result.Steps[2].Code, result.Steps[3].Code}
	if diff := cmp.Diff([]string{"node_not_found", "unknown_action", "action_failed", "missing_text"}, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	if result.Steps[0].Category != core.ErrCategoryResolution {
		t.Errorf("category = %s", result.Steps[0].Category)
	}

	if amount.Text() != "42" {
		t.Errorf("amount text = %q", amount.Text())
	}
	if len(platform.CallsOf(mock.OpBack)) != 1 {
		t.Error("back should still run after earlier failures")
	}
	if result.State != core.RunCompleted {
		t.Errorf("state = %s", result.State)
	}
	if result.SkippedSteps != 3 || result.FailedSteps != 1 || result.PassedSteps != 2 {
		t.Errorf("summary = %d passed %d failed %d skipped", result.PassedSteps, result.FailedSteps, result.SkippedSteps)
	}
}

func TestExecutePlan_PlatformFailure(t *testing.T) {
	root, _, _, _, _ := screen()
	platform := mock.New(root, mock.Config{Fail: map[string]bool{mock.OpClick: true}})
	exec, _ := newTestExecutor(platform)

	result := exec.ExecutePlan(context.Background(), "app", &plan.Plan{Steps: []plan.Step{
		click(`withText("A")`),
		{ActionRaw: "global_back"},
	}})

	if result.Steps[0].Status != core.StatusFailed || result.Steps[0].Category != core.ErrCategoryAction {
		t.Errorf("step 0 = %s/%s", result.Steps[0].Status, result.Steps[0].Category)
	}
	if len(platform.CallsOf(mock.OpClick)) != 1 {
		t.Error("failed action must not be retried")
	}
	if result.Steps[1].Status != core.StatusPassed {
		t.Errorf("step 1 = %s", result.Steps[1].Status)
	}
}

func TestExecutePlan_NoRoot(t *testing.T) {
	platform := mock.New(nil, mock.Config{})
	exec, _ := newTestExecutor(platform)

	result := exec.ExecutePlan(context.Background(), "app", &plan.Plan{Steps: []plan.Step{click(`withText("A")`)}})
	if result.Steps[0].Status != core.StatusSkipped || result.Steps[0].Code != "no_root" {
		t.Errorf("step = %s/%s", result.Steps[0].Status, result.Steps[0].Code)
	}
}

func TestExecutePlan_NoQueries(t *testing.T) {
	root, _, _, _, _ := screen()
	exec, _ := newTestExecutor(mock.New(root, mock.Config{}))

	result := exec.ExecutePlan(context.Background(), "app", &plan.Plan{Steps: []plan.Step{
		{ActionRaw: "click", Matchers: []plan.FieldMatcher{{Type: "bounds", Value: "x"}}},
	}})
	if result.Steps[0].Code != "no_queries" || result.Steps[0].Category != core.ErrCategoryParse {
		t.Errorf("step = %s/%s", result.Steps[0].Code, result.Steps[0].Category)
	}
}

func TestExecutePlan_Gestures(t *testing.T) {
	root, _, _, _, _ := screen()
	platform := mock.New(root, mock.Config{Width: 1000, Height: 2000})
	exec, _ := newTestExecutor(platform)

	exec.ExecutePlan(context.Background(), "app", &plan.Plan{Steps: []plan.Step{
		{ActionRaw: "scroll-down"},
		{ActionRaw: "swipe_left"},
		{ActionRaw: "swiperight"},
		{ActionRaw: "scroll", NodeQuery: `withId("content")`},
	}})

	swipes := platform.CallsOf(mock.OpSwipe)
	if len(swipes) != 4 {
		t.Fatalf("expected 4 swipes, got %d", len(swipes))
	}
	type seg struct{ X1, Y1, X2, Y2, D int }
	got := make([]seg, 0, 4)
	for _, s := range swipes {
		got = append(got, seg{s.X1, s.Y1, s.X2, s.Y2, s.Duration})
	}
	want := []seg{
		{500, 1500, 500, 500, SwipeDurationMs},
		{750, 1000, 250, 1000, SwipeDurationMs},
		{250, 1000, 750, 1000, SwipeDurationMs},
		{540, 1440, 540, 480, SwipeDurationMs}, // inside content bounds
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("swipes mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutePlan_CancelledWaitsContinue(t *testing.T) {
	root, _, _, _, _ := screen()
	platform := mock.New(root, mock.Config{})
	nop := zerolog.Nop()
	exec := New(platform, Config{Logger: &nop})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	result := exec.ExecutePlan(ctx, "app", &plan.Plan{Steps: []plan.Step{
		click(`withText("A")`),
		{ActionRaw: "sleep", Millis: plan.Millis(60_000)},
		{ActionRaw: "back"},
		{ActionRaw: "back"},
	}})

	if time.Since(start) > 5*time.Second {
		t.Fatal("cancelled waits should end early")
	}
	if !result.Interrupted {
		t.Error("run should be marked interrupted")
	}
	if result.Steps[1].Status != core.StatusWarned || result.Steps[1].Code != "interrupted" {
		t.Errorf("sleep step = %s/%s", result.Steps[1].Status, result.Steps[1].Code)
	}
	if len(platform.CallsOf(mock.OpBack)) != 2 {
		t.Error("steps after an interrupted wait must still run")
	}
	if result.State != core.RunCompleted {
		t.Errorf("state = %s", result.State)
	}
}

func TestExecutePlan_OnStepComplete(t *testing.T) {
	root, _, _, _, _ := screen()
	var seen []int
	nop := zerolog.Nop()
	exec := New(mock.New(root, mock.Config{}), Config{
		Sleeper:        &fakeSleeper{},
		Logger:         &nop,
		OnStepComplete: func(r core.StepResult) { seen = append(seen, r.Index) },
	})

	exec.ExecutePlan(context.Background(), "app", &plan.Plan{Steps: []plan.Step{
		{ActionRaw: "back"}, {ActionRaw: "back"},
	}})
	if diff := cmp.Diff([]int{0, 1}, seen); diff != "" {
		t.Errorf("callback order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNode(t *testing.T) {
	root, _, _, amount, _ := screen()
	exec, _ := newTestExecutor(mock.New(root, mock.Config{}))

	tests := []struct {
		name string
		step plan.Step
		want uitree.Node
	}{
		{"dsl", plan.Step{NodeQuery: `withClassName("EditText")`}, amount},
		{"dsl with parent", plan.Step{NodeQuery: `withParent(withId("content")), withId("amount")`}, amount},
		{"dsl index", plan.Step{NodeQuery: `withParent(withId("content")), withParentIndex(2)`}, amount},
		{"descendant picks root first", plan.Step{NodeQuery: `hasDescendant(withId("amount"))`}, root},
		{"matchers", plan.Step{Matchers: []plan.FieldMatcher{{Type: "className", Value: "android.widget.EditText"}}}, amount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.ResolveNode(tt.step)
			if err != nil {
				t.Fatalf("ResolveNode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveNode() = %s, want %s", uitree.Describe(got), uitree.Describe(tt.want))
			}
		})
	}
}

func TestResolveNode_MatcherModesIgnoreCase(t *testing.T) {
	stats := uitree.NewElement(uitree.Attributes{ClassName: "android.widget.Button", Text: "Statistics", Clickable: true})
	root := uitree.NewElement(uitree.Attributes{ClassName: "android.widget.FrameLayout"}).Append(stats)
	exec, _ := newTestExecutor(mock.New(root, mock.Config{}))

	for _, m := range []plan.FieldMatcher{
		{Type: "text", Value: "statistics", Mode: "contains"},
		{Type: "text", Value: "STATISTICS", Mode: "equals"},
		{Type: "text", Value: "stat", Mode: "startsWith"},
		{Type: "text", Value: "TICS", Mode: "endsWith"},
	} {
		t.Run(m.Mode, func(t *testing.T) {
			got, err := exec.ResolveNode(plan.Step{ActionRaw: "click", Matchers: []plan.FieldMatcher{m}})
			if err != nil {
				t.Fatalf("ResolveNode() error = %v", err)
			}
			if got != stats {
				t.Errorf("ResolveNode() = %s", uitree.Describe(got))
			}
		})
	}
}

func TestStepQueries(t *testing.T) {
	exec, _ := newTestExecutor(mock.New(nil, mock.Config{}))

	qs, src := exec.StepQueries(plan.Step{NodeQuery: `withText("x")`, Matchers: []plan.FieldMatcher{{Type: "id", Value: "y"}}})
	if src != SourceNodeQuery || len(qs) != 1 {
		t.Errorf("expected DSL queries, got %s %d", src, len(qs))
	}

	qs, src = exec.StepQueries(plan.Step{NodeQuery: "  ", Matchers: []plan.FieldMatcher{
		{Type: "id", Value: "y"},
		{Type: "weird", Value: "z"},
		{Type: "text", Value: "(", Mode: "regex"},
		{Type: "text", Value: "t", Mode: "unknownMode"},
	}})
	if src != SourceMatchers {
		t.Errorf("source = %s", src)
	}
	got := make([]string, 0, len(qs))
	for _, q := range qs {
		got = append(got, q.String())
	}
	want := []string{`withId(equalsIgnoreCase("y"))`, `withText(equalsIgnoreCase("t"))`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}
