package mqttpublish

import (
	"encoding/json"
	"time"
)

// triggerFireEvent is the wire shape published for each trigger match.
type triggerFireEvent struct {
	Type        string    `json:"type"`
	TriggerID   string    `json:"trigger_id"`
	TriggerName string    `json:"trigger_name"`
	Character   string    `json:"character"`
	MatchedAt   time.Time `json:"matched_at"`
}

// overlayMessageEvent is the wire shape published for each OverlayMessage
// effect, for a companion overlay app to render.
type overlayMessageEvent struct {
	Type   string    `json:"type"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// timerLifecycleEvent is the wire shape published for each timer
// added/updated/killed transition (timers.UpdateKind mirrored as a plain
// string so this package stays independent of internal/timers).
type timerLifecycleEvent struct {
	Type        string    `json:"type"`
	Kind        string    `json:"kind"`
	LiveTimerID string    `json:"live_timer_id"`
	TriggerID   string    `json:"trigger_id"`
	Name        string    `json:"name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PublishTriggerFire announces a trigger match to the configured topic.
func (p *Publisher) PublishTriggerFire(triggerID, triggerName, character string, at time.Time) {
	payload, err := json.Marshal(triggerFireEvent{
		Type: "trigger_fire", TriggerID: triggerID, TriggerName: triggerName,
		Character: character, MatchedAt: at,
	})
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode trigger fire event")
		return
	}
	p.publish(payload)
}

// PublishOverlayMessage announces an OverlayMessage effect's rendered text,
// the Go-native analog of the original's Tauri "show-message" window event
// (spec §5 "Effect outputs": "overlay message bus (fire-and-forget
// string)").
func (p *Publisher) PublishOverlayMessage(text string, at time.Time) {
	payload, err := json.Marshal(overlayMessageEvent{Type: "overlay_message", Text: text, SentAt: at})
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode overlay message event")
		return
	}
	p.publish(payload)
}

// PublishTimerEvent announces a timer lifecycle transition to the
// configured topic.
func (p *Publisher) PublishTimerEvent(kind, liveTimerID, triggerID, name string, at time.Time) {
	payload, err := json.Marshal(timerLifecycleEvent{
		Type: "timer_event", Kind: kind, LiveTimerID: liveTimerID,
		TriggerID: triggerID, Name: name, OccurredAt: at,
	})
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode timer lifecycle event")
		return
	}
	p.publish(payload)
}
