package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/divvyapp/divvy/internal/app/system/timeouts"
)

func TestApply_FillsDefaults(t *testing.T) {
	t.Cleanup(func() { timeouts.Apply(timeouts.Set{}) })

	eff := timeouts.Apply(timeouts.Set{Batch: 2 * time.Minute, Short: -time.Second})

	if eff.Batch != 2*time.Minute || timeouts.Batch() != 2*time.Minute {
		t.Errorf("Batch: got %v / %v, want 2m", eff.Batch, timeouts.Batch())
	}
	if timeouts.Short() != timeouts.Defaults.Short {
		t.Errorf("Short: got %v, want default %v", timeouts.Short(), timeouts.Defaults.Short)
	}
	if eff.Ping != timeouts.Defaults.Ping {
		t.Errorf("Ping: got %v", eff.Ping)
	}

	timeouts.Apply(timeouts.Set{})
	if timeouts.Batch() != timeouts.Defaults.Batch {
		t.Errorf("empty set must restore defaults, Batch = %v", timeouts.Batch())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := timeouts.WithTimeout(t.Context(), time.Millisecond, nil, "test")
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
}

func TestWithTimeout_KeepsEarlierParentDeadline(t *testing.T) {
	parent, pcancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer pcancel()

	ctx, cancel := timeouts.WithTimeout(parent, time.Hour, nil, "test")
	defer cancel()

	pd, _ := parent.Deadline()
	cd, ok := ctx.Deadline()
	if !ok || !cd.Equal(pd) {
		t.Errorf("deadline: got %v, want parent's %v", cd, pd)
	}
}
