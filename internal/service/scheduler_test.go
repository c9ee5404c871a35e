package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "21:00", want: "0 0 21 * * *"},
		{in: " 07:05 ", want: "0 5 7 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "1:2:3", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := buildDailySpec(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("buildDailySpec(%q) = %q, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildDailySpec(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("buildDailySpec(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestScheduleDailyNextRun(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(time.UTC)
	id, err := s.ScheduleDaily("digest", "21:30", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("ScheduleDaily() error = %v", err)
	}
	s.Start()
	defer s.Stop()

	next := s.Next(id)
	if next.IsZero() {
		t.Fatalf("Next() is zero after Start")
	}
	if next.UTC().Hour() != 21 || next.UTC().Minute() != 30 || next.Second() != 0 {
		t.Fatalf("Next() = %v", next)
	}
	if _, err := s.ScheduleDaily("bad", "25:00", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("ScheduleDaily() accepted 25:00")
	}
}

func TestJobAttrsCarryErrorOnlyOnFailure(t *testing.T) {
	t.Parallel()

	started := time.Now()
	ok := jobAttrs("daily_digest", started, nil)
	for i := 0; i < len(ok); i += 2 {
		if ok[i] == "error" {
			t.Fatalf("successful job attrs carry error: %v", ok)
		}
	}
	if ok[3] != "success" || jobLevel(nil) != slog.LevelInfo {
		t.Fatalf("success attrs = %v", ok)
	}

	boom := errors.New("telegram down")
	failed := jobAttrs("daily_digest", started, boom)
	if failed[3] != "failure" || jobLevel(boom) != slog.LevelError {
		t.Fatalf("failure attrs = %v", failed)
	}
	if failed[len(failed)-2] != "error" || failed[len(failed)-1] != boom {
		t.Fatalf("failure attrs lack error: %v", failed)
	}
}
