package chores

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLocker struct {
	held     bool
	released []string
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token-1", true, nil
}

func (l *fakeLocker) Release(ctx context.Context, key, token string) error {
	l.held = false
	l.released = append(l.released, token)
	return nil
}

type recordingMetrics struct {
	runs      []string
	templates map[string]int
}

func (m *recordingMetrics) RecurringRun(status string, duration time.Duration) {
	m.runs = append(m.runs, status)
}

func (m *recordingMetrics) RecurringTemplate(status string) {
	if m.templates == nil {
		m.templates = map[string]int{}
	}
	m.templates[status]++
}

func dueTemplate(id string, now time.Time) *RecurringTemplate {
	return &RecurringTemplate{
		ID:               id,
		HouseholdID:      "hh-1",
		Title:            "Chore " + id,
		RecurrenceUnit:   RecurrenceDaily,
		Interval:         1,
		NextCreationDate: EndOfDay(now, time.UTC),
		IsActive:         true,
		UseRotation:      true,
	}
}

func TestProcessDueTemplatesRotatesAndAdvances(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", now)
	repo.cursors["t1"] = &RotationCursor{TemplateID: "t1", HouseholdID: "hh-1", LastAssignedMemberID: ptr("u1")}
	svc := NewService(repo, newFakeHouseholds(), Options{})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Status != BatchSuccess || report.Summary.Created != 1 || report.Summary.Total != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	result := report.Results[0]
	if result.AssignedTo == nil || *result.AssignedTo != "u2" {
		t.Fatalf("expected u2 assigned, got %+v", result.AssignedTo)
	}
	wantDue := time.Date(2025, 6, 10, 23, 59, 59, 999000000, time.UTC)
	if result.DueDate == nil || !result.DueDate.Equal(wantDue) {
		t.Fatalf("expected due %s, got %v", wantDue, result.DueDate)
	}
	if got := repo.cursors["t1"].LastAssignedMemberID; got == nil || *got != "u2" {
		t.Fatalf("expected cursor advanced to u2, got %v", got)
	}
	wantNext := time.Date(2025, 6, 11, 23, 59, 59, 999000000, time.UTC)
	if !repo.templates["t1"].NextCreationDate.Equal(wantNext) {
		t.Fatalf("expected next creation %s, got %s", wantNext, repo.templates["t1"].NextCreationDate)
	}
	if len(repo.locked) != 1 || repo.locked[0] != "t1" {
		t.Fatalf("expected template lock, got %v", repo.locked)
	}

	// The template is not due again until tomorrow.
	report, err = svc.ProcessDueTemplates(context.Background(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Summary.Total != 0 {
		t.Fatalf("expected nothing due, got %+v", report.Summary)
	}
}

func TestProcessDueTemplatesCreatedTodayIsDueTomorrow(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", now)
	repo.chores["earlier"] = &Chore{
		ID:                  "earlier",
		HouseholdID:         "hh-1",
		RecurringTemplateID: ptr("t1"),
		CreatedAt:           time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC),
	}
	svc := NewService(repo, newFakeHouseholds(), Options{})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := time.Date(2025, 6, 11, 23, 59, 59, 999000000, time.UTC)
	if due := report.Results[0].DueDate; due == nil || !due.Equal(want) {
		t.Fatalf("expected due %s, got %v", want, due)
	}
}

func TestProcessDueTemplatesSkipsWithoutEligibleMember(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", now)
	households := newFakeHouseholds()
	households.available = map[string]bool{}
	svc := NewService(repo, households, Options{})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Status != BatchSuccess || report.Summary.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Results[0].Error != "no_eligible_member" {
		t.Fatalf("expected no_eligible_member, got %q", report.Results[0].Error)
	}
	if !repo.templates["t1"].NextCreationDate.Equal(EndOfDay(now, time.UTC)) {
		t.Fatalf("expected template left due")
	}
	if len(repo.chores) != 0 {
		t.Fatalf("expected no chores created")
	}
}

func TestProcessDueTemplatesPartialFailure(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", now)
	repo.templates["t2"] = dueTemplate("t2", now)
	repo.failOn = "t1"
	metrics := &recordingMetrics{}
	svc := NewService(repo, newFakeHouseholds(), Options{Metrics: metrics})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Status != BatchPartialSuccess {
		t.Fatalf("expected partial_success, got %s", report.Status)
	}
	if report.Summary.Failed != 1 || report.Summary.Created != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if report.Results[0].Status != ResultFailed || report.Results[0].Error == "" {
		t.Fatalf("expected t1 failed with message, got %+v", report.Results[0])
	}
	if len(metrics.runs) != 1 || metrics.runs[0] != string(BatchPartialSuccess) {
		t.Fatalf("unexpected run metrics %v", metrics.runs)
	}
	if metrics.templates["created"] != 1 || metrics.templates["failed"] != 1 {
		t.Fatalf("unexpected template metrics %v", metrics.templates)
	}
}

func TestProcessDueTemplatesAllFailed(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", now)
	households := newFakeHouseholds()
	households.err = errors.New("db down")
	svc := NewService(repo, households, Options{})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Status != BatchFailed {
		t.Fatalf("expected failed, got %s", report.Status)
	}
}

func TestProcessDueTemplatesFixedAssignee(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	template := dueTemplate("t1", now)
	template.UseRotation = false
	template.FixedAssignee = ptr("u3")
	repo.templates["t1"] = template
	svc := NewService(repo, newFakeHouseholds(), Options{})

	report, err := svc.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := report.Results[0].AssignedTo; got == nil || *got != "u3" {
		t.Fatalf("expected u3, got %v", got)
	}
	if _, ok := repo.cursors["t1"]; ok {
		t.Fatalf("expected no cursor for fixed assignee")
	}
}

func TestProcessDueTemplatesBatchLock(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	locker := &fakeLocker{held: true}
	metrics := &recordingMetrics{}
	svc := NewService(newFakeChoresRepo(), newFakeHouseholds(), Options{Locker: locker, Metrics: metrics})

	_, err := svc.ProcessDueTemplates(context.Background(), now)
	if !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
	if len(metrics.runs) != 1 || metrics.runs[0] != "locked" {
		t.Fatalf("expected locked run metric, got %v", metrics.runs)
	}

	locker.held = false
	if _, err := svc.ProcessDueTemplates(context.Background(), now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if locker.held || len(locker.released) != 1 {
		t.Fatalf("expected lock released, got %+v", locker)
	}
}

func TestProcessDueTemplatesFullRotationCycle(t *testing.T) {
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := newFakeChoresRepo()
	repo.templates["t1"] = dueTemplate("t1", start)
	households := newFakeHouseholds()
	households.ordered = []string{"u2", "u3", "u1"}
	svc := NewService(repo, households, Options{})

	var assigned []string
	for day := 0; day < 4; day++ {
		report, err := svc.ProcessDueTemplates(context.Background(), start.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("day %d: expected no error, got %v", day, err)
		}
		if report.Summary.Created != 1 {
			t.Fatalf("day %d: expected one chore, got %+v", day, report.Summary)
		}
		assigned = append(assigned, *report.Results[0].AssignedTo)
	}

	want := []string{"u2", "u3", "u1", "u2"}
	for i := range want {
		if assigned[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, assigned)
		}
	}
}

func TestBatchStatus(t *testing.T) {
	cases := []struct {
		summary BatchSummary
		want    BatchStatus
	}{
		{summary: BatchSummary{}, want: BatchSuccess},
		{summary: BatchSummary{Total: 2, Created: 1, Skipped: 1}, want: BatchSuccess},
		{summary: BatchSummary{Total: 2, Created: 1, Failed: 1}, want: BatchPartialSuccess},
		{summary: BatchSummary{Total: 2, Failed: 2}, want: BatchFailed},
	}
	for _, tc := range cases {
		if got := batchStatus(tc.summary); got != tc.want {
			t.Fatalf("summary %+v: expected %s, got %s", tc.summary, tc.want, got)
		}
	}
}
