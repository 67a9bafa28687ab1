package logger

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"nonsense", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			if got := levelFromEnv(); got != tt.expected {
				t.Errorf("levelFromEnv() with LOG_LEVEL=%q = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestEntryHelpers(t *testing.T) {
	entry := WithFields(logrus.Fields{"a": 1, "b": "two"})
	if entry.Data["a"] != 1 || entry.Data["b"] != "two" {
		t.Errorf("WithFields() entry data = %v", entry.Data)
	}

	entry = WithField("key", "value")
	if entry.Data["key"] != "value" {
		t.Errorf("WithField() entry data = %v", entry.Data)
	}

	err := errors.New("boom")
	entry = WithError(err)
	if entry.Data[logrus.ErrorKey] != err {
		t.Errorf("WithError() entry data = %v", entry.Data)
	}
}
