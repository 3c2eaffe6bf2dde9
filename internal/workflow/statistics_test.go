package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-help-api/internal/models"
)

func TestAggregate(t *testing.T) {
	requests := []models.ServiceRequest{
		newRequest(models.RequestStatusPending),
		newRequest(models.RequestStatusPending),
		newRequest(models.RequestStatusProcessing),
		newRequest(models.RequestStatusApproved),
		newRequest(models.RequestStatusRejected),
		newRequest(models.RequestStatusCompleted),
		newRequest(models.RequestStatusCompleted),
		newRequest(models.RequestStatusCompleted),
	}

	stats := Aggregate(requests)
	assert.Equal(t, models.RequestStatistics{
		Total: 8, Pending: 2, Processing: 1, Approved: 1, Rejected: 1, Completed: 3,
	}, stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.Processing+stats.Approved+stats.Rejected+stats.Completed)
}

func TestAggregateEmptyAndUnknown(t *testing.T) {
	assert.Equal(t, models.RequestStatistics{}, Aggregate(nil))

	stats := Aggregate([]models.ServiceRequest{newRequest("archived"), newRequest(models.RequestStatusPending)})
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
}

func TestFilterByOwner(t *testing.T) {
	mine := newRequest(models.RequestStatusPending)
	theirs := newRequest(models.RequestStatusPending)
	theirs.OwnerID = "mhs-002"

	all := []models.ServiceRequest{mine, theirs}
	assert.Len(t, FilterByOwner(all, "mhs-001"), 1)
	assert.Len(t, FilterByOwner(all, ""), 2)
	assert.Empty(t, FilterByOwner(all, "mhs-404"))
}
