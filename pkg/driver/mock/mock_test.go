package mock

import (
	"testing"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

var _ core.Platform = (*Driver)(nil)

func TestNewDefaults(t *testing.T) {
	d := New(nil, Config{})
	w, h := d.ScreenSize()
	if w != 1080 || h != 1920 {
		t.Errorf("ScreenSize() = %dx%d", w, h)
	}
	if d.Root() != nil {
		t.Error("Root() should be nil")
	}
}

func TestRecordsCalls(t *testing.T) {
	field := uitree.NewElement(uitree.Attributes{ClassName: "android.widget.EditText", Editable: true})
	d := New(field, Config{})

	d.Click(field)
	d.SetText(field, "42")
	d.Swipe(1, 2, 3, 4, 300)
	d.Tap(5, 6)
	d.PressBack()

	calls := d.Calls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 calls, got %d", len(calls))
	}
	ops := []string{OpClick, OpSetText, OpSwipe, OpTap, OpBack}
	for i, op := range ops {
		if calls[i].Op != op {
			t.Errorf("call %d = %s, want %s", i, calls[i].Op, op)
		}
	}
	if calls[2].X2 != 3 || calls[2].Duration != 300 {
		t.Errorf("swipe args not recorded: %+v", calls[2])
	}
	if field.Text() != "42" {
		t.Errorf("SetText should update element text, got %q", field.Text())
	}
	if len(d.CallsOf(OpTap)) != 1 {
		t.Error("CallsOf(tap) should return one call")
	}

	d.Reset()
	if len(d.Calls()) != 0 {
		t.Error("Reset() should clear calls")
	}
}

func TestInjectedFailure(t *testing.T) {
	field := uitree.NewElement(uitree.Attributes{Text: "old"})
	d := New(field, Config{Fail: map[string]bool{OpClick: true, OpSetText: true}})

	if d.Click(field) {
		t.Error("click should fail")
	}
	if d.SetText(field, "new") {
		t.Error("setText should fail")
	}
	if field.Text() != "old" {
		t.Error("failed setText must not change text")
	}
	if !d.PressBack() {
		t.Error("back should succeed")
	}
	if len(d.Calls()) != 3 {
		t.Error("failed calls are still recorded")
	}
}
