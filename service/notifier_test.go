package service

import (
	"testing"
	"time"
)

func TestNotifierSelfDismisses(t *testing.T) {
	notifier := NewNotifier(20*time.Millisecond, testLogger())
	defer notifier.Close()

	notifier.Success("Booking Confirmed!")
	if got := notifier.Active(); len(got) != 1 || got[0].Level != NoticeSuccess {
		t.Fatalf("got %+v", got)
	}

	deadline := time.After(time.Second)
	for len(notifier.Active()) > 0 {
		select {
		case <-deadline:
			t.Fatal("notice never dismissed itself")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNotifierManualDismiss(t *testing.T) {
	notifier := NewNotifier(time.Minute, testLogger())
	defer notifier.Close()

	notifier.Error("Something failed.")
	notifier.Success("Something worked.")

	active := notifier.Active()
	if len(active) != 2 {
		t.Fatalf("got %d notices", len(active))
	}

	notifier.Dismiss(active[0].ID)

	remaining := notifier.Active()
	if len(remaining) != 1 || remaining[0].ID != active[1].ID {
		t.Errorf("got %+v", remaining)
	}
}

func TestNotifierCloseStopsTimers(t *testing.T) {
	notifier := NewNotifier(time.Minute, testLogger())
	notifier.Success("pending")
	notifier.Close()

	if got := notifier.Active(); len(got) != 0 {
		t.Errorf("got %d notices after Close", len(got))
	}
}
