package testutil

import (
	"testing"
	"time"

	"github.com/vanderheijden86/moonview/pkg/card"
)

// WaitForStatus polls until the controller reaches the wanted status or a
// second elapses.
func WaitForStatus(t *testing.T, c *card.Controller, want card.FavoriteStatus) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status never reached %v, still %v", want, c.Status())
}

// AssertActionIDs verifies the menu's action ids in order.
func AssertActionIDs(t *testing.T, actions []card.Action, want ...string) {
	t.Helper()
	if len(actions) != len(want) {
		t.Fatalf("expected %d actions %v, got %d: %v", len(want), want, len(actions), ids(actions))
	}
	for i, id := range want {
		if actions[i].ID != id {
			t.Errorf("action %d: expected id %q, got %q", i, id, actions[i].ID)
		}
	}
}

// FindAction returns the action with the given id, failing the test if it
// is missing.
func FindAction(t *testing.T, actions []card.Action, id string) card.Action {
	t.Helper()
	for _, a := range actions {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("action %q not found in %v", id, ids(actions))
	return card.Action{}
}

func ids(actions []card.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}
