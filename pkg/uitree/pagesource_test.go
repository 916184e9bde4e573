package uitree

import (
	"strings"
	"testing"
)

const loginSource = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <node class="android.widget.FrameLayout" package="com.example" bounds="[0,0][1080,1920]">
    <node class="android.widget.EditText" resource-id="com.example:id/username" text="" hint="Username" clickable="true" bounds="[50,200][1030,300]"/>
    <node class="android.widget.CheckBox" resource-id="com.example:id/remember" text="Remember me" checked="true" bounds="[50,320][500,400]"/>
    <node class="android.widget.Button" resource-id="com.example:id/login" text="Login" content-desc="Sign in" clickable="true" bounds="[50,420][1030,520]"/>
  </node>
</hierarchy>`

func TestParsePageSourceSingleRoot(t *testing.T) {
	root, err := ParsePageSource(loginSource)
	if err != nil {
		t.Fatalf("ParsePageSource() error = %v", err)
	}

	if root.ClassName() != "android.widget.FrameLayout" {
		t.Errorf("root class = %q", root.ClassName())
	}
	if root.Parent() != nil {
		t.Error("root should have no parent")
	}
	if root.Attrs.Package != "com.example" {
		t.Errorf("package = %q", root.Attrs.Package)
	}

	kids := root.Children()
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}

	username := kids[0]
	if !username.IsEditable() {
		t.Error("EditText should be editable")
	}
	if username.Parent() != Node(root) {
		t.Error("child parent link not set")
	}

	remember := kids[1]
	if !remember.IsChecked() {
		t.Error("checkbox should be checked")
	}
	if remember.IsEditable() {
		t.Error("checkbox should not be editable")
	}

	login := kids[2]
	if login.Text() != "Login" || login.ContentDescription() != "Sign in" {
		t.Errorf("login text/desc = %q/%q", login.Text(), login.ContentDescription())
	}
	if !login.IsClickable() {
		t.Error("login should be clickable")
	}
	want := Bounds{X: 50, Y: 420, Width: 980, Height: 100}
	if login.Bounds() != want {
		t.Errorf("bounds = %+v, want %+v", login.Bounds(), want)
	}
}

func TestParsePageSourceMultipleWindows(t *testing.T) {
	xml := `<hierarchy>
  <android.widget.FrameLayout bounds="[0,0][1080,1920]"/>
  <android.widget.FrameLayout bounds="[0,1800][1080,1920]">
    <android.widget.TextView text="Toast"/>
  </android.widget.FrameLayout>
</hierarchy>`

	root, err := ParsePageSource(xml)
	if err != nil {
		t.Fatalf("ParsePageSource() error = %v", err)
	}
	if root.ClassName() != HierarchyClass {
		t.Errorf("expected synthetic root, got %q", root.ClassName())
	}
	if len(root.Children()) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(root.Children()))
	}
	toast := root.Elements()[1].Elements()[0]
	if toast.Text() != "Toast" || toast.ClassName() != "android.widget.TextView" {
		t.Errorf("unexpected toast node %s", Describe(toast))
	}
}

func TestParsePageSourceEditableAttribute(t *testing.T) {
	xml := `<hierarchy><node class="com.custom.Input" editable="true"/></hierarchy>`
	root, err := ParsePageSource(xml)
	if err != nil {
		t.Fatalf("ParsePageSource() error = %v", err)
	}
	if !root.IsEditable() {
		t.Error("explicit editable attribute should be honored")
	}
}

func TestParsePageSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{"no hierarchy", `<node text="x"/>`, "no hierarchy"},
		{"empty hierarchy", `<hierarchy></hierarchy>`, "empty"},
		{"malformed", `<hierarchy><node text="x"></hierarchy>`, "invalid page source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePageSource(tt.xml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in   string
		want Bounds
	}{
		{"[0,0][100,200]", Bounds{0, 0, 100, 200}},
		{"[10,20][30,60]", Bounds{10, 20, 20, 40}},
		{"garbage", Bounds{}},
	}
	for _, tt := range tests {
		if got := parseBounds(tt.in); got != tt.want {
			t.Errorf("parseBounds(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
