package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestRoot builds the command tree with PersistentPreRun stubbed out so
// the API client is left to the test.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "graph-builder",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client initialisation in tests.
		},
	}
	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "")
	root.PersistentFlags().StringVar(&flagKey, "api-key", "", "")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newConnectorsCmd())
	root.AddCommand(newRunsCmd())
	return root
}

func TestPositionalArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"build without account", []string{"build"}},
		{"build with two accounts", []string{"build", "1", "2"}},
		{"fetch without account", []string{"fetch"}},
		{"connectors with argument", []string{"connectors", "device"}},
		{"runs list with argument", []string{"runs", "list", "extra"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetFlags(t)
			if err := executeArgs(t, newTestRoot(), tc.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBuildRejectsBadInputBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"non-numeric account", []string{"build", "abc"}, "invalid"},
		{"zero account", []string{"build", "0"}, "invalid"},
		{"unknown format", []string{"build", "7", "--render", "png"}, "unknown format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetFlags(t)
			err := executeArgs(t, newTestRoot(), tc.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	want := []string{"serve", "build", "migrate", "fetch", "connectors", "runs"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
