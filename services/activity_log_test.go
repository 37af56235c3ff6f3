package services

import (
	"testing"

	"hr-workflow-api/models"
)

func TestAppendRequiresReasonForRejectAndReturn(t *testing.T) {
	gormDB, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()
	service := NewActivityLogService(gormDB)

	actor := Actor{UserID: 7, Name: "Ana Cruz", RoleID: models.RoleApprover}
	blank := "   "

	for _, eventType := range []string{models.EventRejected, models.EventReturned} {
		if _, err := service.Append(gormDB, 1, eventType, models.StatusPendingApproval, models.StatusRejected, actor, nil); !IsValidationError(err) {
			t.Fatalf("%s without reason: expected ValidationError, got %v", eventType, err)
		}
		if _, err := service.Append(gormDB, 1, eventType, models.StatusPendingApproval, models.StatusRejected, actor, &blank); !IsValidationError(err) {
			t.Fatalf("%s with blank reason: expected ValidationError, got %v", eventType, err)
		}
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestActorRoleLabel(t *testing.T) {
	cases := []struct {
		actor Actor
		want  string
	}{
		{Actor{RoleID: models.RoleRequestor}, "requestor"},
		{Actor{RoleID: models.RoleApprover}, "approver"},
		{Actor{RoleID: models.RoleReceiver}, "receiver"},
		{Actor{RoleID: models.RoleAdmin}, "admin"},
		{SystemActor, "system"},
		{Actor{Name: "Someone", RoleID: 0}, "unknown"},
	}
	for _, tc := range cases {
		if got := tc.actor.roleLabel(); got != tc.want {
			t.Fatalf("role %d: got %s want %s", tc.actor.RoleID, got, tc.want)
		}
	}
}
