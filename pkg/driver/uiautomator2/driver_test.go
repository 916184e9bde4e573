package uiautomator2

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/json-iterator/go"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/uiautomator2"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

var _ core.Platform = (*Driver)(nil)

const pageSource = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <node class="android.widget.FrameLayout" bounds="[0,0][1080,2400]">
    <node class="android.widget.Button" resource-id="app:id/pay" text="Pay" clickable="true" bounds="[100,200][300,260]"/>
    <node class="android.widget.EditText" resource-id="app:id/amount" bounds="[0,300][1080,400]"/>
  </node>
</hierarchy>`

type fakeShell struct {
	mu    sync.Mutex
	out   map[string]string
	fail  bool
	calls []string
}

func (s *fakeShell) Shell(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cmd)
	if s.fail {
		return "", fmt.Errorf("shell failed")
	}
	return s.out[cmd], nil
}

// server records requests and answers them from a route table.
type server struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	routes   map[string]interface{}
	status   map[string]int
}

func newServer(t *testing.T) (*server, *uiautomator2.Client) {
	t.Helper()
	s := &server{
		bodies: map[string]string{},
		routes: map[string]interface{}{},
		status: map[string]int{},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/session/s1")
		key := r.Method + " " + path

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		raw, _ := json.Marshal(body)

		s.mu.Lock()
		s.requests = append(s.requests, key)
		s.bodies[key] = string(raw)
		value, ok := s.routes[key]
		code := s.status[key]
		s.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
		}
		if !ok {
			value = nil
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": value})
	}))
	t.Cleanup(ts.Close)

	client := uiautomator2.NewClientURL(ts.URL, ts.Client())
	client.SetSession("s1")
	return s, client
}

func (s *server) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func TestRoot(t *testing.T) {
	srv, client := newServer(t)
	srv.routes["GET /source"] = pageSource
	d := New(client, nil)

	root := d.Root()
	if root == nil {
		t.Fatal("Root() = nil")
	}
	if root.ClassName() != "android.widget.FrameLayout" || len(root.Children()) != 2 {
		t.Errorf("unexpected root %s", uitree.Describe(root))
	}
	amount := root.Children()[1]
	if !amount.IsEditable() {
		t.Error("EditText should be editable")
	}
}

func TestRootUnavailable(t *testing.T) {
	srv, client := newServer(t)
	srv.routes["GET /source"] = "not xml"
	d := New(client, nil)
	if d.Root() != nil {
		t.Error("invalid page source should yield nil root")
	}

	srv.status["GET /source"] = http.StatusInternalServerError
	if d.Root() != nil {
		t.Error("server error should yield nil root")
	}
}

func TestClickTapsBoundsCentre(t *testing.T) {
	srv, client := newServer(t)
	d := New(client, nil)

	node := uitree.NewElement(uitree.Attributes{Bounds: uitree.Bounds{X: 100, Y: 200, Width: 200, Height: 60}})
	if !d.Click(node) {
		t.Fatal("Click() = false")
	}
	body := srv.bodies["POST /appium/gestures/click"]
	if !strings.Contains(body, `"x":200`) || !strings.Contains(body, `"y":230`) {
		t.Errorf("click body = %s", body)
	}
}

func TestClickWithoutBounds(t *testing.T) {
	srv, client := newServer(t)
	srv.routes["POST /element"] = map[string]interface{}{"ELEMENT": "e1"}
	d := New(client, nil)

	if !d.Click(uitree.NewElement(uitree.Attributes{ResourceID: "app:id/pay"})) {
		t.Fatal("Click() = false")
	}
	if calls := srv.calls(); calls[len(calls)-1] != "POST /element/e1/click" {
		t.Errorf("calls = %v", calls)
	}

	if d.Click(uitree.NewElement(uitree.Attributes{})) {
		t.Error("node without bounds or id should not be clickable")
	}
}

func TestSetText(t *testing.T) {
	srv, client := newServer(t)
	srv.routes["POST /element"] = map[string]interface{}{"ELEMENT": "e2"}
	srv.routes["GET /element/active"] = map[string]interface{}{"ELEMENT": "focused"}
	d := New(client, nil)

	if !d.SetText(uitree.NewElement(uitree.Attributes{ResourceID: "app:id/amount"}), "42") {
		t.Fatal("SetText() by id = false")
	}
	if !strings.Contains(srv.bodies["POST /element/e2/value"], `"text":"42"`) {
		t.Errorf("value body = %s", srv.bodies["POST /element/e2/value"])
	}

	if !d.SetText(uitree.NewElement(uitree.Attributes{}), "7") {
		t.Fatal("SetText() via focused element = false")
	}
	if !strings.Contains(srv.bodies["POST /element/focused/value"], `"text":"7"`) {
		t.Errorf("focused body = %s", srv.bodies["POST /element/focused/value"])
	}
}

func TestSetTextFailure(t *testing.T) {
	srv, client := newServer(t)
	srv.status["POST /element"] = http.StatusNotFound
	d := New(client, nil)

	if d.SetText(uitree.NewElement(uitree.Attributes{ResourceID: "app:id/x"}), "1") {
		t.Error("SetText() should fail when the element is missing")
	}
}

func TestSwipe(t *testing.T) {
	_, client := newServer(t)
	shell := &fakeShell{}
	d := New(client, shell)

	if !d.Swipe(540, 1800, 540, 600, 0) {
		t.Fatal("Swipe() = false")
	}
	if len(shell.calls) != 1 || shell.calls[0] != "input swipe 540 1800 540 600 300" {
		t.Errorf("shell calls = %v", shell.calls)
	}

	shell.fail = true
	if d.Swipe(1, 2, 3, 4, 100) {
		t.Error("Swipe() should report shell failure")
	}
	if New(client, nil).Swipe(1, 2, 3, 4, 100) {
		t.Error("Swipe() without device should fail")
	}
}

func TestPressBack(t *testing.T) {
	srv, client := newServer(t)
	d := New(client, nil)
	if !d.PressBack() {
		t.Fatal("PressBack() = false")
	}
	srv.status["POST /back"] = http.StatusInternalServerError
	if d.PressBack() {
		t.Error("PressBack() should report server failure")
	}
}

func TestScreenSize(t *testing.T) {
	t.Run("device info", func(t *testing.T) {
		srv, client := newServer(t)
		srv.routes["GET /appium/device/info"] = map[string]interface{}{"realDisplaySize": "1440x3040"}
		w, h := New(client, nil).ScreenSize()
		if w != 1440 || h != 3040 {
			t.Errorf("ScreenSize() = %dx%d", w, h)
		}
	})

	t.Run("wm size", func(t *testing.T) {
		_, client := newServer(t)
		shell := &fakeShell{out: map[string]string{"wm size": "Physical size: 720x1280\n"}}
		d := New(client, shell)
		w, h := d.ScreenSize()
		if w != 720 || h != 1280 {
			t.Errorf("ScreenSize() = %dx%d", w, h)
		}
		d.ScreenSize()
		if len(shell.calls) != 1 {
			t.Errorf("screen size should be resolved once, got %d shell calls", len(shell.calls))
		}
	})

	t.Run("fallback", func(t *testing.T) {
		_, client := newServer(t)
		w, h := New(client, nil).ScreenSize()
		if w != FallbackWidth || h != FallbackHeight {
			t.Errorf("ScreenSize() = %dx%d", w, h)
		}
	})
}
