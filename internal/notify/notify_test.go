package notify

import "testing"

func TestPublishOrder(t *testing.T) {
	h := NewHub()
	var got []string
	h.Subscribe(func(e Event) { got = append(got, "a:"+e.Kind) })
	h.Subscribe(func(e Event) { got = append(got, "b:"+e.Kind) })

	h.Info("stub.moved", "moved")

	if len(got) != 2 || got[0] != "a:stub.moved" || got[1] != "b:stub.moved" {
		t.Errorf("delivery order = %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	var count int
	cancel := h.Subscribe(func(Event) { count++ })
	keep := 0
	h.Subscribe(func(Event) { keep++ })

	h.Info("x", "")
	cancel()
	h.Info("y", "")

	if count != 1 {
		t.Errorf("cancelled subscriber saw %d events, want 1", count)
	}
	if keep != 2 {
		t.Errorf("surviving subscriber saw %d events, want 2", keep)
	}
	cancel() // second call is a no-op
}

func TestLevels(t *testing.T) {
	h := NewHub()
	var events []Event
	h.Subscribe(func(e Event) { events = append(events, e) })

	h.Info("save.completed", "saved")
	h.Error("save.failed", "network down")

	if events[0].Level != LevelInfo || events[1].Level != LevelError {
		t.Errorf("levels = %v %v", events[0].Level, events[1].Level)
	}
	if events[1].Message != "network down" {
		t.Errorf("message = %q", events[1].Message)
	}
}
