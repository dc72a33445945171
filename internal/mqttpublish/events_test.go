package mqttpublish

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTriggerFireEventMarshalsExpectedShape(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(triggerFireEvent{
		Type: "trigger_fire", TriggerID: "t1", TriggerName: "Slain",
		Character: "Fippy", MatchedAt: at,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "trigger_fire" || decoded["trigger_id"] != "t1" {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestOverlayMessageEventMarshalsExpectedShape(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(overlayMessageEvent{Type: "overlay_message", Text: "Slain!", SentAt: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "overlay_message" || decoded["text"] != "Slain!" {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestTimerLifecycleEventMarshalsExpectedShape(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(timerLifecycleEvent{
		Type: "timer_event", Kind: "added", LiveTimerID: "lt1",
		TriggerID: "t1", Name: "Enrage", OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["kind"] != "added" || decoded["live_timer_id"] != "lt1" {
		t.Fatalf("unexpected payload: %s", data)
	}
}
