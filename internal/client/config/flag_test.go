package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://h:9090", "-g", "h:50052", "-i", "10", "-w", "8", "-t", "5", "-d", "x.db", "-z", "/tmp/drop"}, expectPanic: false,
			expected: &Config{ServerURL: "http://h:9090", HealthAddr: "h:50052", OnlineCheckInterval: 10 * time.Second, Parallelism: 8, HTTPTimeout: 5 * time.Second, DBPath: "x.db", DropDir: "/tmp/drop"}},
		{name: "Test2 foreign flags ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "1", "-w", "2"}, expectPanic: false,
			expected: &Config{Parallelism: 2}},
		{name: "Test3 incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
		{name: "Test4 incorrect timeout", args: []string{"cmd", "-t", "1s"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
