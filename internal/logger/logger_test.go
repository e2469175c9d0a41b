package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_IsNop(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Log.Info("dropped")
}

func TestInit_Levels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"Info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := New()
			if err := l.Init(tc.level); err != nil {
				t.Fatalf("Init(%q) returned error: %v", tc.level, err)
			}
			if !l.Log.Core().Enabled(tc.want) {
				t.Errorf("level %v should be enabled", tc.want)
			}
			if tc.want > zapcore.DebugLevel && l.Log.Core().Enabled(tc.want-1) {
				t.Errorf("level %v should be disabled", tc.want-1)
			}
		})
	}
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	if err := l.Init("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
