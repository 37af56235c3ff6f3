package services

import (
	"regexp"
	"testing"
	"time"

	"hr-workflow-api/models"
	"hr-workflow-api/utils"

	"gorm.io/datatypes"
)

var (
	countRefPrefixRe    = regexp.MustCompile(`SELECT count\(\*\) FROM .submissions. WHERE form_type = .+ AND reference_number LIKE`)
	countRefCollisionRe = regexp.MustCompile(`SELECT count\(\*\) FROM .submissions. WHERE reference_number =`)
	insertSubmissionRe  = regexp.MustCompile(`INSERT INTO .submissions.`)
	insertApproversRe   = regexp.MustCompile(`INSERT INTO .submission_approvers.`)
)

func newTestSubmissions(t *testing.T, steps []*queryStep) (*SubmissionService, *scriptedDB, func()) {
	t.Helper()
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	return NewSubmissionService(gormDB, NewActivityLogService(gormDB), nil), state, cleanup
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	service, state, cleanup := newTestSubmissions(t, nil)
	defer cleanup()

	actor := Actor{UserID: 10, Name: "Maria Santos", RoleID: models.RoleRequestor}
	payload := datatypes.JSON(`{"position":"HR Officer"}`)

	cases := []struct {
		name  string
		input CreateSubmissionInput
	}{
		{"unknown form type", CreateSubmissionInput{FormType: "leave_request", Payload: payload, ApproverIDs: []int{7}}},
		{"empty payload", CreateSubmissionInput{FormType: models.FormTypeManpowerRequisition, ApproverIDs: []int{7}}},
		{"no approvers", CreateSubmissionInput{FormType: models.FormTypeManpowerRequisition, Payload: payload}},
		{"duplicate approver", CreateSubmissionInput{FormType: models.FormTypeManpowerRequisition, Payload: payload, ApproverIDs: []int{7, 7}}},
		{"non-positive approver", CreateSubmissionInput{FormType: models.FormTypeManpowerRequisition, Payload: payload, ApproverIDs: []int{0}}},
	}
	for _, tc := range cases {
		if _, err := service.Create(tc.input, actor); !IsValidationError(err) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateOpensSubmissionInApprovalQueue(t *testing.T) {
	steps := []*queryStep{
		countStep(countRefPrefixRe, 0),
		countStep(countRefCollisionRe, 0),
		{kind: kindExec, pattern: insertSubmissionRe, result: scriptedResult{lastInsertID: 7, rowsAffected: 1}},
		{kind: kindExec, pattern: insertApproversRe, result: scriptedResult{lastInsertID: 11, rowsAffected: 2}},
		{kind: kindExec, pattern: insertLogRe, result: scriptedResult{lastInsertID: 1, rowsAffected: 1}},
	}

	service, state, cleanup := newTestSubmissions(t, steps)
	defer cleanup()

	input := CreateSubmissionInput{
		FormType:      models.FormTypeManpowerRequisition,
		Payload:       datatypes.JSON(`{"position":"HR Officer","headcount":1}`),
		PositionTitle: "HR Officer",
		Department:    "Human Resources",
		SubmittedBy:   10,
		ApproverIDs:   []int{7, 8},
		Ordered:       true,
	}
	result, err := service.Create(input, Actor{UserID: 10, Name: "Maria Santos", RoleID: models.RoleRequestor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := result.Submission
	if sub.SubmissionID != 7 {
		t.Fatalf("expected submission id 7, got %d", sub.SubmissionID)
	}
	wantRef := utils.FormatReferenceNumber("MRF", time.Now().Year(), 1)
	if sub.ReferenceNumber != wantRef {
		t.Fatalf("expected reference %s, got %s", wantRef, sub.ReferenceNumber)
	}
	if sub.Status != models.StatusPendingApproval {
		t.Fatalf("expected status %s, got %s", models.StatusPendingApproval, sub.Status)
	}
	if sub.Version != 1 {
		t.Fatalf("expected version 1, got %d", sub.Version)
	}
	if len(sub.Approvers) != 2 || sub.Approvers[0].SequenceOrder != 1 || sub.Approvers[1].SequenceOrder != 2 {
		t.Fatalf("unexpected approver tagging: %+v", sub.Approvers)
	}

	entry := result.Entry
	if entry.EventType != models.EventSubmitted {
		t.Fatalf("expected %s entry, got %s", models.EventSubmitted, entry.EventType)
	}
	if entry.FromStatus != models.StatusSubmitted || entry.ToStatus != models.StatusPendingApproval {
		t.Fatalf("expected submitted -> pending_approval, got %s -> %s", entry.FromStatus, entry.ToStatus)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGetUnknownSubmission(t *testing.T) {
	steps := []*queryStep{
		selectSubmissionStep(nil),
	}

	service, state, cleanup := newTestSubmissions(t, steps)
	defer cleanup()

	if _, err := service.Get(404); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAttachRefusesQuarantinedSubmission(t *testing.T) {
	row := submissionRow(1, models.StatusPendingApproval, 10, false, 1)
	// reconciliation_flag is the last scripted column
	row[len(row)-1] = int64(1)
	steps := []*queryStep{
		selectSubmissionStep(row),
	}

	service, state, cleanup := newTestSubmissions(t, steps)
	defer cleanup()

	if err := service.Attach(1, 55, "contract.pdf"); err != ErrReconciliationRequired {
		t.Fatalf("expected ErrReconciliationRequired, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAttachStoresFileReference(t *testing.T) {
	steps := []*queryStep{
		selectSubmissionStep(submissionRow(1, models.StatusReturned, 10, false, 3)),
		{kind: kindExec, pattern: updateSubmissionRe, result: scriptedResult{rowsAffected: 1}},
	}

	service, state, cleanup := newTestSubmissions(t, steps)
	defer cleanup()

	if err := service.Attach(1, 55, "contract.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
