// Package workflow holds the pure request lifecycle rules: the status state
// machine, the role based access policy and the statistics aggregator. Nothing
// here performs I/O.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// Mode selects how strictly transitions are checked.
type Mode string

const (
	// ModeStrict only allows the edges of the directed transition graph.
	ModeStrict Mode = "strict"
	// ModePermissive allows any recognised status except a return to pending.
	ModePermissive Mode = "permissive"
)

// strictGraph is the directed transition graph enforced in ModeStrict.
var strictGraph = map[models.RequestStatus][]models.RequestStatus{
	models.RequestStatusPending:    {models.RequestStatusProcessing, models.RequestStatusRejected},
	models.RequestStatusProcessing: {models.RequestStatusApproved, models.RequestStatusRejected},
	models.RequestStatusApproved:   {models.RequestStatusCompleted},
	models.RequestStatusRejected:   nil,
	models.RequestStatusCompleted:  nil,
}

// Engine validates and applies status transitions.
type Engine struct {
	mode Mode
}

// NewEngine constructs an engine; unknown modes fall back to ModeStrict.
func NewEngine(mode Mode) *Engine {
	if mode != ModePermissive {
		mode = ModeStrict
	}
	return &Engine{mode: mode}
}

// Mode reports the configured mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Next lists the statuses reachable from the given one.
func (e *Engine) Next(from models.RequestStatus) []models.RequestStatus {
	if !from.Valid() {
		return nil
	}
	if e.mode == ModeStrict {
		return append([]models.RequestStatus(nil), strictGraph[from]...)
	}
	next := make([]models.RequestStatus, 0, len(models.RequestStatuses)-2)
	for _, status := range models.RequestStatuses {
		if status != models.RequestStatusPending && status != from {
			next = append(next, status)
		}
	}
	return next
}

// IsTerminal reports whether no transition leaves the status.
func (e *Engine) IsTerminal(status models.RequestStatus) bool {
	return len(e.Next(status)) == 0
}

// Validate checks that moving from one status to another is legal. Repeating
// the current status is legal and treated as a no-op by Apply.
func (e *Engine) Validate(from, to models.RequestStatus) error {
	if !to.Valid() {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("unrecognized status %q", string(to))),
			"unrecognized_status",
		)
	}
	if from == to {
		return nil
	}
	if to == models.RequestStatusPending {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "a request cannot return to pending"),
			"illegal_transition",
		)
	}
	if e.mode == ModePermissive {
		return nil
	}
	for _, allowed := range strictGraph[from] {
		if allowed == to {
			return nil
		}
	}
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot change status from %s to %s", from, to)),
		"illegal_transition",
	)
}

// Transition is the outcome of applying a status change to a request.
type Transition struct {
	Request models.ServiceRequest
	From    models.RequestStatus
	To      models.RequestStatus
	// StatusChanged is false when the target equals the current status.
	StatusChanged bool
	// Changed is true when anything on the record was modified.
	Changed bool
}

// Apply validates the transition and returns an updated copy of req. The
// input is never modified. Empty notes keep the existing ones.
func (e *Engine) Apply(req models.ServiceRequest, to models.RequestStatus, notes, reviewerID string, now time.Time) (Transition, error) {
	if err := e.Validate(req.Status, to); err != nil {
		return Transition{}, err
	}
	next := req.Clone()
	result := Transition{From: req.Status, To: to}

	notes = strings.TrimSpace(notes)
	notesChanged := notes != "" && (req.Notes == nil || *req.Notes != notes)

	if req.Status == to && !notesChanged {
		result.Request = next
		return result, nil
	}

	if notesChanged {
		next.Notes = &notes
	}
	if reviewerID != "" {
		reviewer := reviewerID
		next.ApprovedBy = &reviewer
	}
	next.UpdatedAt = Advance(req.UpdatedAt, now)

	if req.Status != to {
		next.Status = to
		if to == models.RequestStatusCompleted {
			completed := next.UpdatedAt
			next.CompletedAt = &completed
		} else {
			next.CompletedAt = nil
		}
		result.StatusChanged = true
	}
	result.Changed = true
	result.Request = next
	return result, nil
}

// Advance returns a timestamp strictly after prev, preferring now.
func Advance(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
