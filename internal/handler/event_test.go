package handler

import (
	"testing"
	"time"
)

func TestEventRequestValidate(t *testing.T) {
	t.Parallel()
	starts := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	endsBefore := starts.Add(-time.Hour)
	endsAfter := starts.Add(2 * time.Hour)

	cases := []struct {
		name   string
		req    eventRequest
		wantOK bool
	}{
		{"ok minimal", eventRequest{Title: "Концерт", StartsAt: starts}, true},
		{"ok with end", eventRequest{Title: "Концерт", StartsAt: starts, EndsAt: &endsAfter}, true},
		{"no title", eventRequest{StartsAt: starts}, false},
		{"no starts_at", eventRequest{Title: "Концерт"}, false},
		{"ends before starts", eventRequest{Title: "Концерт", StartsAt: starts, EndsAt: &endsBefore}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := tc.req.validate()
			if tc.wantOK && msg != "" {
				t.Fatalf("expected valid, got %q", msg)
			}
			if !tc.wantOK && msg == "" {
				t.Fatal("expected validation message, got none")
			}
		})
	}
}
