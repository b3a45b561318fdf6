package main

import (
	"bytes"
	"os/exec"
	"strings"
	"testing"
)

func TestBuildRootSubcommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{
		"create": false, "run": false, "stop": false, "list": false,
		"find": false, "prune": false, "template": false, "serve": false, "menu": false,
	}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestRootHelp(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("help should succeed: %v", err)
	}
	if !strings.Contains(out.String(), "scriptforge") {
		t.Fatalf("unexpected help output: %s", out.String())
	}
}

func TestHelpExitsZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping go run in short mode")
	}
	cmd := exec.Command("go", "run", ".", "--help")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("help should succeed: %v, out=%s", err, out)
	}
	if !strings.Contains(string(out), "scriptforge") {
		t.Fatalf("unexpected help output: %s", out)
	}
}
