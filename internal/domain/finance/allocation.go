package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationTarget is an open document an amount can be allocated to
type AllocationTarget struct {
	ID        uuid.UUID
	Number    string
	DueAmount decimal.Decimal
	DueDate   *time.Time
	IssueDate time.Time
}

// Allocation is the amount assigned to one target
type Allocation struct {
	TargetID     uuid.UUID
	TargetNumber string
	Amount       decimal.Decimal
}

// AllocationPlan is the outcome of an allocation strategy
type AllocationPlan struct {
	Allocations     []Allocation
	TotalAllocated  decimal.Decimal
	RemainingAmount decimal.Decimal
}

// FullyAllocated reports whether nothing was left over
func (p *AllocationPlan) FullyAllocated() bool {
	return p.RemainingAmount.IsZero()
}

// TargetsFromStatuses converts open, non credit-note account statuses into allocation targets
func TargetsFromStatuses(statuses []*AccountStatus) []AllocationTarget {
	targets := make([]AllocationTarget, 0, len(statuses))
	for _, s := range statuses {
		if !s.Status.IsOpen() || s.DocumentType.IsCreditNote() || !s.DueAmount.IsPositive() {
			continue
		}
		targets = append(targets, AllocationTarget{
			ID:        s.ID,
			Number:    s.DocumentNumber,
			DueAmount: s.DueAmount,
			DueDate:   s.DueDate,
			IssueDate: s.IssueDate,
		})
	}
	return targets
}

// AllocateFIFO spreads amount over targets, earliest due date first (documents without a
// due date last), then earliest issue date. Whatever cannot be allocated is returned as remaining.
func AllocateFIFO(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	sorted := make([]AllocationTarget, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		}
		return a.IssueDate.Before(b.IssueDate)
	})

	plan := &AllocationPlan{
		Allocations:     make([]Allocation, 0),
		TotalAllocated:  decimal.Zero,
		RemainingAmount: amount,
	}
	for _, t := range sorted {
		if plan.RemainingAmount.IsZero() {
			break
		}
		if !t.DueAmount.IsPositive() {
			continue
		}
		alloc := decimal.Min(plan.RemainingAmount, t.DueAmount)
		plan.Allocations = append(plan.Allocations, Allocation{TargetID: t.ID, TargetNumber: t.Number, Amount: alloc})
		plan.TotalAllocated = plan.TotalAllocated.Add(alloc)
		plan.RemainingAmount = plan.RemainingAmount.Sub(alloc)
	}
	return plan, nil
}

// ManualAllocationRequest asks for a specific amount on a specific document.
// A zero amount means "the whole due balance".
type ManualAllocationRequest struct {
	TargetID uuid.UUID
	Amount   decimal.Decimal
}

// AllocateManual validates explicit allocations against the targets' due balances
func AllocateManual(requests []ManualAllocationRequest, targets []AllocationTarget) (*AllocationPlan, error) {
	if len(requests) == 0 {
		return nil, shared.NewDomainError("NO_DETAILS", "At least one document is required")
	}
	byID := make(map[uuid.UUID]AllocationTarget, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
	}

	plan := &AllocationPlan{
		Allocations:     make([]Allocation, 0, len(requests)),
		TotalAllocated:  decimal.Zero,
		RemainingAmount: decimal.Zero,
	}
	seen := make(map[uuid.UUID]bool, len(requests))
	for _, req := range requests {
		t, ok := byID[req.TargetID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Document %s is not open for allocation", req.TargetID))
		}
		if seen[req.TargetID] {
			return nil, shared.NewDomainError("DUPLICATE_DOCUMENT", fmt.Sprintf("Document %s appears more than once", t.Number))
		}
		seen[req.TargetID] = true

		amount := req.Amount
		if amount.IsZero() {
			amount = t.DueAmount
		}
		if err := validateAmount(amount); err != nil {
			return nil, err
		}
		if amount.GreaterThan(t.DueAmount) {
			return nil, shared.NewDomainError("EXCEEDS_DUE",
				fmt.Sprintf("Amount %s exceeds due amount %s of document %s", amount.StringFixed(2), t.DueAmount.StringFixed(2), t.Number))
		}
		plan.Allocations = append(plan.Allocations, Allocation{TargetID: t.ID, TargetNumber: t.Number, Amount: amount})
		plan.TotalAllocated = plan.TotalAllocated.Add(amount)
	}
	return plan, nil
}
