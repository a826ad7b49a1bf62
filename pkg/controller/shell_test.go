package controller

import (
	"errors"
	"reflect"
	"testing"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

func TestRawShell_Validation(t *testing.T) {
	c := newTestController(t, newFakeBackend(), Deps{Shell: &fakeShell{}})

	res := c.RawShell("   ")
	if res.ExitCode != -1 || !errors.Is(res.Err, core.ErrInvalidArgument) {
		t.Errorf("RawShell(blank) = %+v", res)
	}
}

func TestRawShell_NoRunner(t *testing.T) {
	c := newTestController(t, newFakeBackend(), Deps{})

	res := c.RawShell("ls")
	if res.OK() || !errors.Is(res.Err, core.ErrUnsupported) {
		t.Errorf("RawShell() = %+v, want unsupported", res)
	}
}

func TestRawShell_Fallback(t *testing.T) {
	okLs := core.ShellResult{Stdout: "sdcard\n"}
	failLs := core.ShellResult{ExitCode: 126, Stderr: "permission denied"}

	tests := []struct {
		name      string
		direct    map[string]core.ShellResult
		bridge    map[string]core.ShellResult
		noDirect  bool
		noBridge  bool
		want      core.ShellResult
		wantCalls []string
	}{
		{
			name:      "direct succeeds",
			direct:    map[string]core.ShellResult{"ls": okLs},
			bridge:    map[string]core.ShellResult{"ls": okLs},
			want:      okLs,
			wantCalls: []string{"direct:ls"},
		},
		{
			name:      "bridge retries failed command",
			direct:    map[string]core.ShellResult{"ls": failLs},
			bridge:    map[string]core.ShellResult{"ls": okLs},
			want:      okLs,
			wantCalls: []string{"direct:ls", "bridge:ls"},
		},
		{
			name:      "both fail returns bridge result",
			direct:    map[string]core.ShellResult{"ls": failLs},
			want:      core.ShellResult{ExitCode: 1, Stderr: "not found"},
			wantCalls: []string{"direct:ls", "bridge:ls"},
		},
		{
			name:      "no bridge returns direct result",
			direct:    map[string]core.ShellResult{"ls": failLs},
			noBridge:  true,
			want:      failLs,
			wantCalls: []string{"direct:ls"},
		},
		{
			name:      "bridge only",
			bridge:    map[string]core.ShellResult{"ls": okLs},
			noDirect:  true,
			want:      okLs,
			wantCalls: []string{"bridge:ls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &strategyLog{}
			deps := Deps{}
			if !tt.noDirect {
				deps.Shell = &fakeShell{log: log, name: "direct", results: tt.direct}
			}
			if !tt.noBridge {
				deps.Bridge = &fakeShell{log: log, name: "bridge", results: tt.bridge}
			}
			c := newTestController(t, newFakeBackend(), deps)

			got := c.RawShell("ls")
			if got != tt.want {
				t.Errorf("RawShell() = %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(log.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", log.calls, tt.wantCalls)
			}
		})
	}
}

func TestShellInputCommands(t *testing.T) {
	log := &strategyLog{}
	shell := &fakeShell{log: log, name: "sh", results: map[string]core.ShellResult{
		"input tap 10 20":           {},
		"input text 'hello%sworld'": {},
		"input swipe 1 2 3 4 500":   {},
		`input text 'it'\''s'`:      {},
	}}
	c := newTestController(t, newFakeBackend(), Deps{Shell: shell})

	if !c.ShellTap(10, 20) {
		t.Error("ShellTap() failed")
	}
	if !c.ShellText("hello world") {
		t.Error("ShellText() failed")
	}
	if !c.ShellText("it's") {
		t.Error("ShellText() with quote failed")
	}
	if !c.ShellSwipe(1, 2, 3, 4, 500) {
		t.Error("ShellSwipe() failed")
	}
	if c.ShellTap(1, 1) {
		t.Error("ShellTap() should report a non-zero exit")
	}

	calls := len(log.calls)
	if c.ShellTap(-1, 0) || c.ShellText("") || c.ShellSwipe(0, 0, 0, 0, -1) {
		t.Error("invalid input should fail")
	}
	if len(log.calls) != calls {
		t.Error("invalid input must not reach the shell")
	}
}
