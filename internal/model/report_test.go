package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ReportStatus
		want     bool
	}{
		{ReportPending, ReportReviewed, true},
		{ReportPending, ReportResolved, true},
		{ReportPending, ReportDismissed, true},
		{ReportPending, ReportPending, false},
		{ReportPending, "ESCALATED", false},
		{ReportResolved, ReportDismissed, false},
		{ReportResolved, ReportPending, false},
		{ReportReviewed, ReportResolved, false},
		{ReportDismissed, ReportPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
