package jobs

import (
	"testing"
	"time"

	"github.com/kbukum/transcribot/chat"
)

func TestRegistry_AddRejectsDuplicatePollRef(t *testing.T) {
	r := NewRegistry()
	if !r.Add(New("ref-1", chat.Origin{})) {
		t.Fatal("first add rejected")
	}
	if r.Add(New("ref-1", chat.Origin{})) {
		t.Fatal("duplicate add accepted")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	base := time.Now()
	for i, ref := range []string{"b", "a", "c"} {
		j := New(ref, chat.Origin{Platform: chat.PlatformMatrix})
		j.CreatedAt = base.Add(time.Duration(i) * time.Second)
		r.Add(j)
	}

	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].PollRef != "b" || snap[2].PollRef != "c" {
		t.Fatalf("snapshot order = %v", snap)
	}
	snap[0].Rounds = 99
	if j, _ := r.Get("b"); j.Rounds != 0 {
		t.Error("snapshot mutation leaked into registry")
	}
}

func TestRegistry_FailureStreak(t *testing.T) {
	r := NewRegistry()
	r.Add(New("ref", chat.Origin{}))

	if n := r.RecordFailure("ref"); n != 1 {
		t.Errorf("streak = %d", n)
	}
	if n := r.RecordFailure("ref"); n != 2 {
		t.Errorf("streak = %d", n)
	}
	r.RecordPoll("ref")
	j, _ := r.Get("ref")
	if j.ConsecutiveFailures != 0 || j.Rounds != 3 {
		t.Errorf("job = %+v", j)
	}
	if n := r.RecordFailure("missing"); n != 0 {
		t.Errorf("missing streak = %d", n)
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Add(New("a", chat.Origin{}))
	r.Add(New("b", chat.Origin{}))
	if n := r.Remove("a", "missing"); n != 1 {
		t.Errorf("removed = %d", n)
	}
	if r.IsEmpty() {
		t.Fatal("registry should still hold b")
	}
	r.Remove("b")
	if !r.IsEmpty() {
		t.Fatal("registry should be empty")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Interval != 5*time.Second || c.Concurrency != 8 || c.MaxConsecutiveFailures != 0 {
		t.Errorf("defaults = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	c.MaxConsecutiveFailures = -1
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative max failures")
	}
}
