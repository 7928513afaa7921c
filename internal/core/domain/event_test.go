package domain

import "testing"

func TestEventType_RoutingKey(t *testing.T) {
	cases := []struct {
		typ  EventType
		want string
	}{
		{EventAdminCreated, "user.admin_created"},
		{EventPartnerCreated, "user.partner_created"},
		{EventAdminAssistantCreated, "user.admin_assistant_created"},
		{EventDriverCreated, "user.driver_created"},
		{EventUserUpdated, "user.user_updated"},
		{EventUserDeleted, "user.user_deleted"},
		{EventUserDeletionFailed, "user.user_deletion_failed"},
		{EventCriticalError, "user.critical_error"},
		{EventPartnerValidated, "user.partner_validated"},
		{EventPartnerInvalidated, "user.partner_invalidated"},
		{EventUserLoggedIn, "user.user_logged_in"},
	}

	for _, tc := range cases {
		if got := tc.typ.RoutingKey(); got != tc.want {
			t.Errorf("RoutingKey(%s) = %q, want %q", tc.typ, got, tc.want)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("MANAGER").Valid() {
		t.Errorf("unknown role should be invalid")
	}
	if Role("").Valid() {
		t.Errorf("empty role should be invalid")
	}
}
