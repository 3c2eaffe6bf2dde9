package workflow

import "github.com/noah-isme/academic-help-api/internal/models"

// Action is an operation an identity may attempt on requests.
type Action string

const (
	ActionCreate       Action = "create"
	ActionRead         Action = "read"
	ActionEditContent  Action = "editContent"
	ActionDelete       Action = "delete"
	ActionChangeStatus Action = "changeStatus"
	ActionViewAll      Action = "viewAll"
)

// Decision explains the outcome of a policy check.
type Decision int

const (
	Allow Decision = iota
	// DenyRole: the role may never perform the action.
	DenyRole
	// DenyOwner: the identity does not own the resource.
	DenyOwner
	// DenyState: the owner may act, but not in the resource's current status.
	DenyState
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyRole:
		return "deny_role"
	case DenyOwner:
		return "deny_owner"
	case DenyState:
		return "deny_state"
	}
	return "unknown"
}

// Can reports whether identity may perform action on resource.
func Can(identity models.Identity, action Action, resource *models.ServiceRequest) bool {
	return Decide(identity, action, resource) == Allow
}

// Decide evaluates the access rules and reports why a denial happened.
func Decide(identity models.Identity, action Action, resource *models.ServiceRequest) Decision {
	switch identity.Role {
	case models.RoleStudent:
		return decideStudent(identity, action, resource)
	case models.RoleAdmin, models.RoleReviewer:
		switch action {
		case ActionViewAll, ActionRead, ActionChangeStatus:
			return Allow
		}
		return DenyRole
	}
	return DenyRole
}

func decideStudent(identity models.Identity, action Action, resource *models.ServiceRequest) Decision {
	switch action {
	case ActionCreate:
		return Allow
	case ActionRead, ActionEditContent, ActionDelete:
		if resource == nil || identity.ID == "" || resource.OwnerID != identity.ID {
			return DenyOwner
		}
		if action != ActionRead && resource.Status != models.RequestStatusPending {
			return DenyState
		}
		return Allow
	}
	return DenyRole
}

// RolePermits reports whether the role can perform the action on at least
// some resource. It lets callers reject an operation before loading anything.
func RolePermits(role models.UserRole, action Action) bool {
	switch role {
	case models.RoleStudent:
		switch action {
		case ActionCreate, ActionRead, ActionEditContent, ActionDelete:
			return true
		}
	case models.RoleAdmin, models.RoleReviewer:
		switch action {
		case ActionViewAll, ActionRead, ActionChangeStatus:
			return true
		}
	}
	return false
}
