package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandHelp(t *testing.T) {
	logger, err := newConsoleLogger(false)
	if err != nil {
		t.Fatalf("newConsoleLogger() error: %v", err)
	}
	defer logger.Sync()

	initCommands(logger)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("rootCmd.Execute() error: %v", err)
	}

	if !strings.Contains(out.String(), "kindenv wraps the kind CLI") {
		t.Fatalf("help output missing expected text")
	}
}

func TestRootCommandListsSubcommands(t *testing.T) {
	logger, err := newConsoleLogger(false)
	if err != nil {
		t.Fatalf("newConsoleLogger() error: %v", err)
	}
	defer logger.Sync()

	initCommands(logger)

	expected := map[string]bool{
		"up":         false,
		"down":       false,
		"status":     false,
		"kubeconfig": false,
	}
	for _, sub := range rootCmd.Commands() {
		if _, ok := expected[sub.Use]; ok {
			expected[sub.Use] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}
