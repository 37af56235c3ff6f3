package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"hr-workflow-api/models"
)

var (
	countSubmissionsRe = regexp.MustCompile(`SELECT count\(\*\) FROM .submissions.`)
	selectStageRe      = regexp.MustCompile(`SELECT \* FROM .submissions. WHERE status IN`)
	selectUsersRe      = regexp.MustCompile(`SELECT \* FROM .users.`)
)

func countStep(pattern *regexp.Regexp, count int64) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: pattern,
		columns: []string{"count(*)"},
		rows:    [][]driver.Value{{count}},
	}
}

func TestListUnknownStage(t *testing.T) {
	service, state, cleanup := newTestListing(t, nil)
	defer cleanup()

	_, _, err := service.List("in-flight", ListFilters{}, 1, 20)
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestStageStatusMapping(t *testing.T) {
	cases := map[string][]string{
		"for-approval":          {models.StatusPendingApproval},
		"awaiting-resubmission": {models.StatusAwaitingResubmission},
		"rejected":              {models.StatusRejected},
		"for-receiving":         {models.StatusForReceiving},
		"returned":              {models.StatusReturned},
		"received":              {models.StatusReceived},
		"cancelled":             {models.StatusCancelled},
	}
	for stage, want := range cases {
		got := StageStatuses(stage)
		if len(got) != len(want) || got[0] != want[0] {
			t.Fatalf("stage %s: got %v want %v", stage, got, want)
		}
	}
	if StageStatuses("submitted") != nil {
		t.Fatalf("expected nil for unmapped stage")
	}
}

func TestListStagePage(t *testing.T) {
	steps := []*queryStep{
		countStep(countSubmissionsRe, 1),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT \* FROM .submissions. WHERE status IN .+ ORDER BY created_at DESC, submission_id DESC LIMIT 20`),
			columns: submissionColumns,
			rows: [][]driver.Value{
				submissionRow(3, models.StatusPendingApproval, 10, false, 1),
			},
		},
		{
			kind:    kindQuery,
			pattern: selectUsersRe,
			columns: []string{"user_id", "user_fname", "user_lname", "email", "role_id"},
			rows: [][]driver.Value{
				{int64(10), "Maria", "Santos", "maria.santos@example.com", int64(models.RoleRequestor)},
			},
		},
	}

	service, state, cleanup := newTestListing(t, steps)
	defer cleanup()

	// out-of-range paging values fall back to page 1, size 20
	submissions, total, err := service.List("for-approval", ListFilters{}, 0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}
	if len(submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(submissions))
	}
	if submissions[0].Requestor == nil || submissions[0].Requestor.FullName() != "Maria Santos" {
		t.Fatalf("expected requestor preloaded, got %+v", submissions[0].Requestor)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestListAppliesFilters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	requestorID := 10
	steps := []*queryStep{
		countStep(countSubmissionsRe, 0),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`reference_number LIKE .+ AND created_at >= .+ AND submitted_by = .+ AND department = `),
			columns: submissionColumns,
			rows:    [][]driver.Value{},
		},
	}

	service, state, cleanup := newTestListing(t, steps)
	defer cleanup()

	submissions, total, err := service.List("received", ListFilters{
		Search:      "MRF-2026",
		DateFrom:    &from,
		RequestorID: &requestorID,
		Department:  "Engineering",
	}, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(submissions) != 0 {
		t.Fatalf("expected empty page, got total %d len %d", total, len(submissions))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestHistoryUnknownSubmission(t *testing.T) {
	steps := []*queryStep{
		countStep(countSubmissionsRe, 0),
	}

	service, state, cleanup := newTestListing(t, steps)
	defer cleanup()

	_, err := service.History(404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestHistoryMissingLogIsConsistencyFault(t *testing.T) {
	steps := []*queryStep{
		countStep(countSubmissionsRe, 1),
		{kind: kindQuery, pattern: selectLatestLogRe, columns: logColumns, rows: [][]driver.Value{}},
	}

	service, state, cleanup := newTestListing(t, steps)
	defer cleanup()

	_, err := service.History(1)
	if !errors.Is(err, ErrReconciliationRequired) {
		t.Fatalf("expected ErrReconciliationRequired, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestHistoryReturnsOrderedEntries(t *testing.T) {
	steps := []*queryStep{
		countStep(countSubmissionsRe, 1),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT \* FROM .activity_log. WHERE submission_id = .+ ORDER BY created_at ASC, entry_id ASC`),
			columns: logColumns,
			rows: [][]driver.Value{
				{int64(1), int64(1), models.EventSubmitted, models.StatusSubmitted, models.StatusPendingApproval, time.Now().Add(-2 * time.Hour)},
				{int64(2), int64(1), models.EventApproved, models.StatusPendingApproval, models.StatusForReceiving, time.Now().Add(-time.Hour)},
				{int64(3), int64(1), models.EventReceived, models.StatusForReceiving, models.StatusReceived, time.Now()},
			},
		},
	}

	service, state, cleanup := newTestListing(t, steps)
	defer cleanup()

	entries, err := service.History(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].EventType != models.EventSubmitted || entries[2].EventType != models.EventReceived {
		t.Fatalf("unexpected ordering: %s ... %s", entries[0].EventType, entries[2].EventType)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func newTestListing(t *testing.T, steps []*queryStep) (*ListingService, *scriptedDB, func()) {
	t.Helper()
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	return NewListingService(gormDB, NewActivityLogService(gormDB)), state, cleanup
}
