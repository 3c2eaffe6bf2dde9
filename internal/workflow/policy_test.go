package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-help-api/internal/models"
)

var allActions = []Action{ActionCreate, ActionRead, ActionEditContent, ActionDelete, ActionChangeStatus, ActionViewAll}

func TestStudentPolicy(t *testing.T) {
	owner := models.Identity{ID: "mhs-001", Role: models.RoleStudent}
	other := models.Identity{ID: "mhs-002", Role: models.RoleStudent}
	pending := newRequest(models.RequestStatusPending)
	processing := newRequest(models.RequestStatusProcessing)

	assert.Equal(t, Allow, Decide(owner, ActionCreate, nil))
	assert.Equal(t, Allow, Decide(owner, ActionRead, &processing))
	assert.Equal(t, Allow, Decide(owner, ActionEditContent, &pending))
	assert.Equal(t, Allow, Decide(owner, ActionDelete, &pending))

	assert.Equal(t, DenyState, Decide(owner, ActionEditContent, &processing))
	assert.Equal(t, DenyState, Decide(owner, ActionDelete, &processing))

	assert.Equal(t, DenyOwner, Decide(other, ActionRead, &pending))
	assert.Equal(t, DenyOwner, Decide(other, ActionEditContent, &pending))
	assert.Equal(t, DenyOwner, Decide(owner, ActionRead, nil))

	assert.Equal(t, DenyRole, Decide(owner, ActionChangeStatus, &pending))
	assert.Equal(t, DenyRole, Decide(owner, ActionViewAll, nil))
}

func TestReviewerPolicy(t *testing.T) {
	pending := newRequest(models.RequestStatusPending)
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleReviewer} {
		identity := models.Identity{ID: "admin-001", Role: role}

		assert.True(t, Can(identity, ActionViewAll, nil))
		assert.True(t, Can(identity, ActionRead, &pending))
		assert.True(t, Can(identity, ActionChangeStatus, &pending))

		assert.Equal(t, DenyRole, Decide(identity, ActionCreate, nil))
		assert.Equal(t, DenyRole, Decide(identity, ActionEditContent, &pending))
		assert.Equal(t, DenyRole, Decide(identity, ActionDelete, &pending))
	}
}

func TestUnknownRoleDeniedEverything(t *testing.T) {
	identity := models.Identity{ID: "x", Role: "guest"}
	pending := newRequest(models.RequestStatusPending)
	for _, action := range allActions {
		assert.False(t, Can(identity, action, &pending), string(action))
		assert.False(t, RolePermits(identity.Role, action), string(action))
	}
	assert.False(t, Can(models.Identity{ID: "mhs-001", Role: models.RoleStudent}, "archive", &pending))
}

func TestRolePermitsMatchesDecide(t *testing.T) {
	pending := newRequest(models.RequestStatusPending)
	for _, role := range []models.UserRole{models.RoleStudent, models.RoleAdmin, models.RoleReviewer} {
		identity := models.Identity{ID: pending.OwnerID, Role: role}
		for _, action := range allActions {
			assert.Equal(t, Can(identity, action, &pending), RolePermits(role, action), "%s %s", role, action)
		}
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny_state", DenyState.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
