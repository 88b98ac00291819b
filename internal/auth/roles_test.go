package auth

import "testing"

func TestValidateRole(t *testing.T) {
	tests := []struct {
		role    string
		wantErr bool
	}{
		{"super_admin", false},
		{"cms_admin", false},
		{"cms_editor", false},
		{"cms_moderator", false},
		{"registered_member", false},
		{"expert_panellist", false},
		{"helpdesk_user", false},
		{"admin", true},
		{"member", true},
		{"", true},
		{"SUPER_ADMIN", true},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			err := ValidateRole(tt.role)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRole(%q) error = %v, wantErr %v", tt.role, err, tt.wantErr)
			}
		})
	}
}

func TestScopesForRole_EveryRoleResolves(t *testing.T) {
	for _, role := range AllRoles() {
		scopes := ScopesForRole(role)
		if len(scopes) == 0 {
			t.Errorf("ScopesForRole(%q) returned no scopes", role)
			continue
		}
		if err := ValidateScopes(scopes); err != nil {
			t.Errorf("ScopesForRole(%q) returned invalid scopes: %v", role, err)
		}
	}
}

func TestScopesForRole_UnknownRole(t *testing.T) {
	if scopes := ScopesForRole(Role("intruder")); scopes != nil {
		t.Errorf("ScopesForRole(unknown) = %v, want nil", scopes)
	}
}

func TestScopesForRole_ReturnsCopy(t *testing.T) {
	a := ScopesForRole(RoleRegisteredMember)
	a[0] = "mutated"
	b := ScopesForRole(RoleRegisteredMember)
	if b[0] == "mutated" {
		t.Error("ScopesForRole returned a shared slice; mutation leaked into the role table")
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Scope
		want     bool
	}{
		{"super_admin has everything", RoleSuperAdmin, ScopeRolesManage, true},
		{"cms_admin can moderate", RoleCMSAdmin, ScopeForumModerate, true},
		{"cms_admin can publish", RoleCMSAdmin, ScopeContentPublish, true},
		{"cms_admin cannot manage roles", RoleCMSAdmin, ScopeRolesManage, false},
		{"cms_editor can write content", RoleCMSEditor, ScopeContentWrite, true},
		{"cms_editor cannot publish", RoleCMSEditor, ScopeContentPublish, false},
		{"cms_editor cannot moderate", RoleCMSEditor, ScopeForumModerate, false},
		{"cms_moderator can moderate", RoleCMSModerator, ScopeForumModerate, true},
		{"cms_moderator cannot write content", RoleCMSModerator, ScopeContentWrite, false},
		{"member can submit queries", RoleRegisteredMember, ScopeForumWrite, true},
		{"member cannot respond", RoleRegisteredMember, ScopeForumRespond, false},
		{"member cannot moderate", RoleRegisteredMember, ScopeForumModerate, false},
		{"member can register for events", RoleRegisteredMember, ScopeEventsRegister, true},
		{"member can open tickets", RoleRegisteredMember, ScopeTicketsCreate, true},
		{"member cannot manage tickets", RoleRegisteredMember, ScopeTicketsManage, false},
		{"expert can respond", RoleExpertPanellist, ScopeForumRespond, true},
		{"expert cannot moderate", RoleExpertPanellist, ScopeForumModerate, false},
		{"helpdesk can manage tickets", RoleHelpdeskUser, ScopeTicketsManage, true},
		{"helpdesk cannot moderate", RoleHelpdeskUser, ScopeForumModerate, false},
		{"helpdesk cannot read audit", RoleHelpdeskUser, ScopeAuditRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasScope(ScopesForRole(tt.role), tt.required)
			if got != tt.want {
				t.Errorf("HasScope(ScopesForRole(%q), %q) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestIsStaffRole(t *testing.T) {
	staff := []Role{RoleSuperAdmin, RoleCMSAdmin, RoleCMSEditor, RoleCMSModerator}
	nonStaff := []Role{RoleRegisteredMember, RoleExpertPanellist, RoleHelpdeskUser}

	for _, r := range staff {
		if !IsStaffRole(r) {
			t.Errorf("IsStaffRole(%q) = false, want true", r)
		}
	}
	for _, r := range nonStaff {
		if IsStaffRole(r) {
			t.Errorf("IsStaffRole(%q) = true, want false", r)
		}
	}
}

func TestDefaultRole(t *testing.T) {
	if DefaultRole != RoleRegisteredMember {
		t.Errorf("DefaultRole = %q, want registered_member", DefaultRole)
	}
	if err := ValidateRole(string(DefaultRole)); err != nil {
		t.Errorf("DefaultRole is not a valid role: %v", err)
	}
}
