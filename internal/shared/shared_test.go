package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		tc := []struct {
			name    string
			level   string
			want    log.Level
			wantErr bool
		}{
			{name: "debug", level: "debug", want: log.DebugLevel},
			{name: "warn", level: "warn", want: log.WarnLevel},
			{name: "empty keeps default", level: "", want: log.InfoLevel},
			{name: "unknown", level: "chatty", want: log.InfoLevel, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				logger := NewLogger(&bytes.Buffer{})
				err := SetLogLevel(logger, tt.level)
				if (err != nil) != tt.wantErr {
					t.Fatalf("SetLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				}
				if logger.GetLevel() != tt.want {
					t.Errorf("expected level %v, got %v", tt.want, logger.GetLevel())
				}
			})
		}
	})

	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("DiscardLogger", func(t *testing.T) {
		DiscardLogger().Error("nothing to see")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Errorf("expected unique ids, got %s twice", a)
	}
}
