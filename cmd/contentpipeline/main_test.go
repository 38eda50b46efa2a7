package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "logging:\n  level: error\npipeline:\n  siteUrl: \"\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunReturnsExitCodes(t *testing.T) {
	t.Setenv("SITE_URL", "")
	cfg := writeConfig(t)

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"--no-such-flag"}, 2},
		{"bad format", []string{"--config", cfg, "--format", "xml"}, 2},
		// Reaching the failure return means deferred cleanup ran instead of an in-place exit.
		{"run without site", []string{"--config", cfg}, 1},
		{"schedule without sites", []string{"--config", cfg, "--schedule"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.args); got != tc.want {
				t.Fatalf("run(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}
