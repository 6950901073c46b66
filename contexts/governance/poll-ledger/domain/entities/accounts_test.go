package entities

import "testing"

func TestPollActiveAtInclusiveBounds(t *testing.T) {
	poll := Poll{StartTime: 100, EndTime: 200}

	cases := []struct {
		now  int64
		want bool
	}{
		{99, false},
		{100, true},
		{150, true},
		{200, true},
		{201, false},
	}
	for _, tc := range cases {
		if got := poll.ActiveAt(tc.now); got != tc.want {
			t.Fatalf("ActiveAt(%d) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestPollStatusAt(t *testing.T) {
	poll := Poll{StartTime: 100, EndTime: 200}

	if got := poll.StatusAt(50); got != PollStatusUpcoming {
		t.Fatalf("expected upcoming before start, got %s", got)
	}
	if got := poll.StatusAt(100); got != PollStatusActive {
		t.Fatalf("expected active at start bound, got %s", got)
	}
	if got := poll.StatusAt(200); got != PollStatusActive {
		t.Fatalf("expected active at end bound, got %s", got)
	}
	if got := poll.StatusAt(201); got != PollStatusCompleted {
		t.Fatalf("expected completed after end, got %s", got)
	}
}
