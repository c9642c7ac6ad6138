package orders

import (
	"math"
	"time"
)

// Production milestone names, completed as the order enters the matching status.
const (
	MilestoneProduction     = "production"
	MilestoneQualityControl = "quality_control"
	MilestoneShipping       = "shipping"
	MilestoneDelivery       = "delivery"
)

// Milestone is a named step on the production timeline.
type Milestone struct {
	Name        string
	DueAt       time.Time
	CompletedAt *time.Time
}

// Timeline tracks production milestones for an order.
type Timeline struct {
	StartAt       time.Time
	EstimatedDays int
	Milestones    []Milestone
}

// Rough share of the estimate each phase takes, in order.
var milestoneShares = []struct {
	name  string
	share float64
}{
	{MilestoneProduction, 0.6},
	{MilestoneQualityControl, 0.75},
	{MilestoneShipping, 0.9},
	{MilestoneDelivery, 1.0},
}

// NewProductionTimeline lays out the standard milestones across estimatedDays.
func NewProductionTimeline(start time.Time, estimatedDays int) Timeline {
	milestones := make([]Milestone, 0, len(milestoneShares))
	for _, m := range milestoneShares {
		due := start.AddDate(0, 0, int(math.Ceil(float64(estimatedDays)*m.share)))
		milestones = append(milestones, Milestone{Name: m.name, DueAt: due})
	}
	return Timeline{StartAt: start, EstimatedDays: estimatedDays, Milestones: milestones}
}

// Complete marks the named milestone done at the given time. Completing an
// already-completed milestone is a no-op.
func (t *Timeline) Complete(name string, at time.Time) bool {
	for i := range t.Milestones {
		if t.Milestones[i].Name != name {
			continue
		}
		if t.Milestones[i].CompletedAt == nil {
			done := at
			t.Milestones[i].CompletedAt = &done
		}
		return true
	}
	return false
}

// CompleteAll marks every remaining milestone done, used when the order completes.
func (t *Timeline) CompleteAll(at time.Time) {
	for i := range t.Milestones {
		if t.Milestones[i].CompletedAt == nil {
			done := at
			t.Milestones[i].CompletedAt = &done
		}
	}
}

// ProgressPercent is the share of completed milestones, 0-100.
func (t Timeline) ProgressPercent() int {
	if len(t.Milestones) == 0 {
		return 0
	}
	completed := 0
	for _, m := range t.Milestones {
		if m.CompletedAt != nil {
			completed++
		}
	}
	return completed * 100 / len(t.Milestones)
}

// EstimatedCompletion returns the due date of the final milestone.
func (t Timeline) EstimatedCompletion() time.Time {
	if len(t.Milestones) == 0 {
		return t.StartAt
	}
	return t.Milestones[len(t.Milestones)-1].DueAt
}

// estimateProductionDays sizes the timeline from the order items: a 7 day
// base, 2 extra days per customized item and ceil(qty/10) days for bulk
// lines, clamped to [5, 30] days.
func estimateProductionDays(items []OrderItem) int {
	days := 7
	for _, item := range items {
		if item.Customized {
			days += 2
		}
		if item.Quantity > 10 {
			days += (item.Quantity + 9) / 10
		}
	}
	if days < 5 {
		days = 5
	}
	if days > 30 {
		days = 30
	}
	return days
}
