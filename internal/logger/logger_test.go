package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
		wantErr    bool
	}{
		{"production", "", zapcore.InfoLevel, false},
		{"development", "", zapcore.DebugLevel, false},
		{"production", "warn", zapcore.WarnLevel, false},
		{"development", "loud", 0, true},
	}
	for _, tt := range tests {
		l, err := New(tt.env, tt.level)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q, %q): expected error", tt.env, tt.level)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.env, tt.level, err)
		}
		if !l.Core().Enabled(tt.want) {
			t.Errorf("New(%q, %q): level %v disabled", tt.env, tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
			t.Errorf("New(%q, %q): level below %v enabled", tt.env, tt.level, tt.want)
		}
	}
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	l, err := InitLogger("production", "error")
	if err != nil {
		t.Fatal(err)
	}
	if Log != l {
		t.Error("InitLogger did not replace Log")
	}
	Sync()
}
