package uiautomator2

import (
	"strings"
	"testing"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

const sampleHierarchy = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.app" bounds="[0,0][1080,1920]" clickable="false" enabled="true">
    <node index="0" text="Login" resource-id="com.app:id/login_btn" class="android.widget.Button" package="com.app" bounds="[100,200][300,280]" clickable="true" enabled="true"/>
    <node index="1" text="Sign Up" resource-id="com.app:id/signup_btn" class="android.widget.Button" package="com.app" bounds="[100,300][300,380]" clickable="true" enabled="true"/>
    <node index="2" text="" resource-id="com.app:id/container" class="android.widget.LinearLayout" package="com.app" bounds="[0,400][1080,800]" clickable="false" enabled="true">
      <node index="0" text="Username" resource-id="com.app:id/label" class="android.widget.TextView" package="com.app" bounds="[50,420][200,460]" clickable="false" enabled="true"/>
      <node index="1" text="" content-desc="username field" resource-id="com.app:id/input" class="android.widget.EditText" package="com.app" bounds="[50,470][500,530]" clickable="true" enabled="true" focused="true"/>
    </node>
  </node>
</hierarchy>`

func TestParsePageSource(t *testing.T) {
	elements, err := ParsePageSource(sampleHierarchy)
	if err != nil {
		t.Fatalf("ParsePageSource failed: %v", err)
	}

	// 1 root + 3 children + 2 grandchildren
	if len(elements) != 6 {
		t.Fatalf("expected 6 elements, got %d", len(elements))
	}

	wantOrder := []string{
		"android.widget.FrameLayout",
		"android.widget.Button",
		"android.widget.Button",
		"android.widget.LinearLayout",
		"android.widget.TextView",
		"android.widget.EditText",
	}
	wantDepth := []int{0, 1, 1, 1, 2, 2}
	for i, e := range elements {
		if e.ClassName != wantOrder[i] {
			t.Errorf("element %d class = %s, want %s", i, e.ClassName, wantOrder[i])
		}
		if e.Depth != wantDepth[i] {
			t.Errorf("element %d depth = %d, want %d", i, e.Depth, wantDepth[i])
		}
	}

	login := elements[1]
	if login.Text != "Login" || login.ResourceID != "com.app:id/login_btn" || !login.Clickable {
		t.Errorf("unexpected login element: %+v", login)
	}
	if login.Package != "com.app" {
		t.Errorf("expected package com.app, got %s", login.Package)
	}

	input := elements[5]
	if input.ContentDesc != "username field" || !input.Focused {
		t.Errorf("unexpected input element: %+v", input)
	}
}

func TestParsePageSourceClassTags(t *testing.T) {
	xml := `<hierarchy><android.widget.FrameLayout text="" bounds="[0,0][10,10]"><android.widget.TextView text="Hi"/></android.widget.FrameLayout></hierarchy>`

	elements, err := ParsePageSource(xml)
	if err != nil {
		t.Fatalf("ParsePageSource failed: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elements))
	}
	if elements[1].ClassName != "android.widget.TextView" || elements[1].Text != "Hi" {
		t.Errorf("unexpected child: %+v", elements[1])
	}
}

func TestParsePageSourceInvalidXML(t *testing.T) {
	if _, err := ParsePageSource("not xml"); err == nil {
		t.Error("expected error for invalid XML")
	}
}

func TestParsePageSourceNoHierarchy(t *testing.T) {
	_, err := ParsePageSource(`<node text="x"/>`)
	if err == nil || !strings.Contains(err.Error(), "no hierarchy") {
		t.Errorf("expected no hierarchy error, got %v", err)
	}
}

func TestParsePageSourceEmptyHierarchy(t *testing.T) {
	elements, err := ParsePageSource(`<hierarchy rotation="0"></hierarchy>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("expected no elements, got %d", len(elements))
	}
}

func TestToNodesDepthLimit(t *testing.T) {
	elements, err := ParsePageSource(sampleHierarchy)
	if err != nil {
		t.Fatal(err)
	}

	nodes := ToNodes(elements, 1)
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes at depth <= 1, got %d", len(nodes))
	}
	for _, n := range nodes {
		if n.Depth > 1 {
			t.Errorf("node deeper than limit: %+v", n)
		}
	}

	all := ToNodes(elements, 10)
	if len(all) != 6 {
		t.Errorf("expected 6 nodes, got %d", len(all))
	}
	last := all[5]
	if last.Description != "username field" || last.ResourceID != "com.app:id/input" || last.Bounds != (core.Bounds{X: 50, Y: 470, Width: 450, Height: 60}) {
		t.Errorf("unexpected node conversion: %+v", last)
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		input    string
		expected core.Bounds
	}{
		{"[0,0][100,200]", core.Bounds{X: 0, Y: 0, Width: 100, Height: 200}},
		{"[50,100][150,300]", core.Bounds{X: 50, Y: 100, Width: 100, Height: 200}},
		{"invalid", core.Bounds{}},
		{"[0,0]", core.Bounds{}},
	}

	for _, tt := range tests {
		got := parseBounds(tt.input)
		if got != tt.expected {
			t.Errorf("parseBounds(%q) = %+v, want %+v", tt.input, got, tt.expected)
		}
	}
}
