package core

import (
	"errors"
	"testing"
)

func TestIntent_Component(t *testing.T) {
	explicit := Intent{Package: "com.example", Activity: ".MainActivity"}
	if got := explicit.Component(); got != "com.example/.MainActivity" {
		t.Errorf("Component() = %q", got)
	}

	implicit := Intent{Action: ActionMain, Categories: []string{CategoryHome}}
	if got := implicit.Component(); got != "" {
		t.Errorf("Component() = %q, want empty for implicit intent", got)
	}
}

func TestShellResult_OK(t *testing.T) {
	tests := []struct {
		name string
		r    ShellResult
		want bool
	}{
		{"exit zero", ShellResult{ExitCode: 0}, true},
		{"exit nonzero", ShellResult{ExitCode: 1}, false},
		{"not started", ShellResult{ExitCode: 0, Err: errors.New("no such file")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.OK(); got != tt.want {
				t.Errorf("OK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocator_String(t *testing.T) {
	loc := Locator{Strategy: ByID, Value: "com.app:id/login"}
	if got := loc.String(); got != "id=com.app:id/login" {
		t.Errorf("String() = %q", got)
	}
}
