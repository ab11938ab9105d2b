package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := l.WithContext(context.Background())
	ctx = SetCreator(ctx, "chef_aiden")
	ctx = SetPostID(ctx, "post-1")

	With(Fields{}).WithDuration(1500 * time.Millisecond).WithStatus("ok").Info(ctx, "run %s", "done")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	checks := map[string]interface{}{
		"service":       "test",
		FieldCreator:    "chef_aiden",
		FieldPostID:     "post-1",
		FieldStatus:     "ok",
		FieldDurationMs: float64(1500),
		"message":       "run done",
	}
	for k, want := range checks {
		if got := line[k]; got != want {
			t.Errorf("field %s = %v, want %v", k, got, want)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Fatal("expected default logger for bare context")
	}
	if GetCycleID(context.Background()) != "" {
		t.Fatal("expected empty cycle id")
	}

	ctx := SetCycleID(context.Background(), "c-1")
	if got := GetCycleID(ctx); got != "c-1" {
		t.Fatalf("GetCycleID = %q", got)
	}
}
