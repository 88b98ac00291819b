// Package auth - roles.go is the single source of truth for what each portal
// role is allowed to do. Every endpoint gate resolves through ScopesForRole;
// there are no per-handler role allow-lists.
package auth

import "fmt"

// Role is one of the portal's fixed role tags. Exactly one role is assigned
// per user in the user_roles table.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleCMSAdmin         Role = "cms_admin"
	RoleCMSEditor        Role = "cms_editor"
	RoleCMSModerator     Role = "cms_moderator"
	RoleRegisteredMember Role = "registered_member"
	RoleExpertPanellist  Role = "expert_panellist"
	RoleHelpdeskUser     Role = "helpdesk_user"
)

// AllRoles returns the closed set of assignable roles.
func AllRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleCMSAdmin,
		RoleCMSEditor,
		RoleCMSModerator,
		RoleRegisteredMember,
		RoleExpertPanellist,
		RoleHelpdeskUser,
	}
}

// ValidateRole checks that role is one of the assignable role tags.
func ValidateRole(role string) error {
	for _, r := range AllRoles() {
		if string(r) == role {
			return nil
		}
	}
	return fmt.Errorf("invalid role: %s", role)
}

// roleScopes maps each role to its scope set. Baseline member capabilities
// (read content, submit queries, register for events, open tickets) are shared
// by every role; staff roles add their area on top.
var roleScopes = map[Role][]string{
	RoleSuperAdmin: {
		string(ScopeAdmin),
	},
	RoleCMSAdmin: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeForumRespond),
		string(ScopeForumModerate),
		string(ScopeContentWrite),
		string(ScopeContentPublish),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
		string(ScopeTicketsManage),
		string(ScopeUsersRead),
		string(ScopeAuditRead),
	},
	RoleCMSEditor: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeContentWrite),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
	},
	RoleCMSModerator: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeForumModerate),
		string(ScopeContentRead),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
	},
	RoleRegisteredMember: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeContentRead),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
	},
	RoleExpertPanellist: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeForumRespond),
		string(ScopeContentRead),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
	},
	RoleHelpdeskUser: {
		string(ScopeForumRead),
		string(ScopeForumWrite),
		string(ScopeContentRead),
		string(ScopeEventsRegister),
		string(ScopeTicketsCreate),
		string(ScopeTicketsManage),
	},
}

// ScopesForRole resolves a role tag to its scope set. Unknown roles resolve to
// nil, which fails every scope check downstream.
func ScopesForRole(role Role) []string {
	scopes, ok := roleScopes[role]
	if !ok {
		return nil
	}
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}

// DefaultRole is the role assigned on signup.
const DefaultRole = RoleRegisteredMember

// IsStaffRole reports whether the role belongs to the CMS/admin side of the
// portal (used for the moderation visibility rule on pending responses).
func IsStaffRole(role Role) bool {
	switch role {
	case RoleSuperAdmin, RoleCMSAdmin, RoleCMSEditor, RoleCMSModerator:
		return true
	}
	return false
}
