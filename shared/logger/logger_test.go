package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "tasktracker", "debug")
	l.WithField("component", "test").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]string{
		"message":   "hello",
		"level":     "debug",
		"service":   "tasktracker",
		"component": "test",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("ts field missing")
	}
}

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := New(&bytes.Buffer{}, "", tt.level).GetLevel(); got != tt.want {
			t.Errorf("level %q = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	l := New(&bytes.Buffer{}, "", "")
	if _, ok := WithRequestID(l, "").Data["request_id"]; ok {
		t.Error("empty request id must not be added")
	}
	if got := WithRequestID(l, "abc").Data["request_id"]; got != "abc" {
		t.Errorf("request_id = %v", got)
	}
}
