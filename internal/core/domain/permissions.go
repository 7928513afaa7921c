package domain

// Action enumerates the mutating operations subject to authorization.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionValidate Action = "validate"
)

// Target describes the record (or, for creation, the role) an action is
// aimed at.
type Target struct {
	ID        string
	Role      Role
	CreatedBy string
}

// createRules maps a target role to the actor roles allowed to create it.
// PARTNER is absent: partner signup is self-service and needs no actor.
var createRules = map[Role][]Role{
	RoleAdmin:          {RoleSuperAdmin},
	RoleAdminAssistant: {RoleAdmin},
	RoleClient:         {RolePartner},
	RoleDriver:         {RoleAdmin, RoleAdminAssistant},
}

// deleteRules maps an actor role to the target roles it may soft-delete.
// SUPER_ADMIN may delete anyone except another SUPER_ADMIN.
var deleteRules = map[Role][]Role{
	RoleSuperAdmin:     {RoleAdmin, RoleAdminAssistant, RolePartner, RoleClient, RoleDriver},
	RoleAdmin:          {RoleAdminAssistant, RolePartner, RoleDriver},
	RoleAdminAssistant: {RolePartner, RoleDriver},
	RolePartner:        {RoleClient},
}

func roleIn(r Role, set []Role) bool {
	for _, allowed := range set {
		if r == allowed {
			return true
		}
	}
	return false
}

// CanCreate reports whether actorRole may create an account with targetRole.
func CanCreate(actorRole, targetRole Role) bool {
	if targetRole == RolePartner {
		return true
	}
	return roleIn(actorRole, createRules[targetRole])
}

// CanUpdate reports whether the actor may update the target account.
// "Self" rules compare the actor id with the target id.
func CanUpdate(actor AuthContext, target Target) bool {
	self := actor.ActorID != "" && actor.ActorID == target.ID

	switch target.Role {
	case RoleDriver:
		return actor.ActorRole == RoleAdmin || actor.ActorRole == RoleAdminAssistant
	case RoleClient:
		return actor.ActorRole.Valid()
	case RoleSuperAdmin:
		return actor.ActorRole == RoleSuperAdmin && self
	case RoleAdmin:
		return actor.ActorRole == RoleSuperAdmin || (actor.ActorRole == RoleAdmin && self)
	case RoleAdminAssistant:
		return actor.ActorRole == RoleAdmin || (actor.ActorRole == RoleAdminAssistant && self)
	case RolePartner:
		return actor.ActorRole == RoleAdmin || (actor.ActorRole == RolePartner && self)
	}
	return false
}

// CanDelete reports whether actorRole may soft-delete an account with
// targetRole.
func CanDelete(actorRole, targetRole Role) bool {
	return roleIn(targetRole, deleteRules[actorRole])
}

// CanValidate reports whether the actor may validate or invalidate the
// target. Only PARTNER accounts pass the validation gate.
func CanValidate(actorRole, targetRole Role) bool {
	if targetRole != RolePartner {
		return false
	}
	return actorRole == RoleAdmin || actorRole == RoleAdminAssistant
}

// Authorize is the single decision point for every mutating operation:
// given the authenticated actor, the requested action, and the target, it
// returns nil on allow and ErrForbidden on deny. Callers resolve target
// existence first, so a deny here never masks a missing record.
func Authorize(actor AuthContext, action Action, target Target) error {
	allowed := false
	switch action {
	case ActionCreate:
		allowed = CanCreate(actor.ActorRole, target.Role)
	case ActionUpdate:
		allowed = CanUpdate(actor, target)
	case ActionDelete:
		allowed = CanDelete(actor.ActorRole, target.Role)
	case ActionValidate:
		allowed = CanValidate(actor.ActorRole, target.Role)
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}
