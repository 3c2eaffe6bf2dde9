package workflow

import "github.com/noah-isme/academic-help-api/internal/models"

// Aggregate counts requests per status in a single pass. Records with an
// unrecognised status are skipped so Total always equals the sum of the buckets.
func Aggregate(requests []models.ServiceRequest) models.RequestStatistics {
	var stats models.RequestStatistics
	for i := range requests {
		switch requests[i].Status {
		case models.RequestStatusPending:
			stats.Pending++
		case models.RequestStatusProcessing:
			stats.Processing++
		case models.RequestStatusApproved:
			stats.Approved++
		case models.RequestStatusRejected:
			stats.Rejected++
		case models.RequestStatusCompleted:
			stats.Completed++
		default:
			continue
		}
		stats.Total++
	}
	return stats
}

// FilterByOwner keeps the requests owned by ownerID; an empty id keeps everything.
func FilterByOwner(requests []models.ServiceRequest, ownerID string) []models.ServiceRequest {
	if ownerID == "" {
		return requests
	}
	owned := make([]models.ServiceRequest, 0, len(requests))
	for _, req := range requests {
		if req.OwnerID == ownerID {
			owned = append(owned, req)
		}
	}
	return owned
}
