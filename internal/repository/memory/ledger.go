package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type paymentRepo struct{ *repos }

func (r paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	return r.view(func(st *state) error {
		for _, existing := range st.payments {
			if existing.EnrollmentID == p.EnrollmentID {
				return fmt.Errorf("Create: %w", domain.ErrDuplicatePayment)
			}
		}
		if !p.SplitIsExact() {
			return fmt.Errorf("Create: %w: split does not sum to total", domain.ErrInvariantViolation)
		}
		st.payments[p.ID] = *p
		return nil
	})
}

func (r paymentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.view(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r paymentRepo) GetByEnrollmentID(_ context.Context, enrollmentID uuid.UUID) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.view(func(st *state) error {
		for _, p := range st.payments {
			if p.EnrollmentID == enrollmentID {
				out = &p
				return nil
			}
		}
		return fmt.Errorf("GetByEnrollmentID: %w", domain.ErrNotFound)
	})
	return out, err
}

func (r paymentRepo) Update(_ context.Context, p *domain.Payment, expected domain.PaymentStatus) error {
	return r.view(func(st *state) error {
		current, ok := st.payments[p.ID]
		if !ok || current.Status != expected {
			return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
		}
		if !p.SplitIsExact() {
			return fmt.Errorf("Update: %w: split does not sum to total", domain.ErrInvariantViolation)
		}
		current.Status = p.Status
		current.PlatformShare = p.PlatformShare
		current.InstructorShare = p.InstructorShare
		current.FailureReason = p.FailureReason
		current.CompletedAt = p.CompletedAt
		current.UpdatedAt = p.UpdatedAt
		st.payments[p.ID] = current
		return nil
	})
}

func (r paymentRepo) SumInstructorShare(_ context.Context, courseID uuid.UUID) (int64, error) {
	var total int64
	err := r.view(func(st *state) error {
		for _, p := range st.payments {
			if p.CourseID == courseID && p.Status == domain.PaymentStatusCompleted {
				total += p.InstructorShare
			}
		}
		return nil
	})
	return total, err
}

type payoutRepo struct{ *repos }

func (r payoutRepo) Create(_ context.Context, p *domain.Payout) error {
	return r.view(func(st *state) error {
		st.payouts[p.ID] = *p
		return nil
	})
}

func (r payoutRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Payout, error) {
	var out *domain.Payout
	err := r.view(func(st *state) error {
		p, ok := st.payouts[id]
		if !ok {
			return fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r payoutRepo) UpdateStatus(_ context.Context, p *domain.Payout, expected domain.PayoutStatus) error {
	return r.view(func(st *state) error {
		current, ok := st.payouts[p.ID]
		if !ok || current.Status != expected {
			return fmt.Errorf("UpdateStatus: %w", domain.ErrVersionConflict)
		}
		current.Status = p.Status
		current.RejectionReason = p.RejectionReason
		current.ProcessedAt = p.ProcessedAt
		current.UpdatedAt = p.UpdatedAt
		st.payouts[p.ID] = current
		return nil
	})
}

func (r payoutRepo) TotalsByCourse(_ context.Context, courseID uuid.UUID) (domain.PayoutTotals, error) {
	var t domain.PayoutTotals
	err := r.view(func(st *state) error {
		for _, p := range st.payouts {
			if p.CourseID != courseID {
				continue
			}
			switch {
			case p.Status == domain.PayoutStatusCompleted:
				t.Completed += p.Amount
			case p.Status.IsOutstanding():
				t.Outstanding += p.Amount
			}
		}
		return nil
	})
	return t, err
}

func (r payoutRepo) List(_ context.Context, filter domain.PayoutFilter) ([]domain.Payout, int, error) {
	var matched []domain.Payout
	err := r.view(func(st *state) error {
		for _, p := range st.payouts {
			if matchesPayout(p, filter, true) {
				matched = append(matched, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
			return matched[i].RequestedAt.After(matched[j].RequestedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := append([]domain.Payout{}, matched[start:end]...)
	return page, total, nil
}

func (r payoutRepo) SummarizeByStatus(_ context.Context, filter domain.PayoutFilter) ([]domain.PayoutStatusTotal, error) {
	byStatus := make(map[domain.PayoutStatus]*domain.PayoutStatusTotal)
	err := r.view(func(st *state) error {
		for _, p := range st.payouts {
			if !matchesPayout(p, filter, false) {
				continue
			}
			t, ok := byStatus[p.Status]
			if !ok {
				t = &domain.PayoutStatusTotal{Status: p.Status}
				byStatus[p.Status] = t
			}
			t.Count++
			t.Amount += p.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var totals []domain.PayoutStatusTotal
	for _, t := range byStatus {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Status < totals[j].Status })
	return totals, nil
}

func matchesPayout(p domain.Payout, f domain.PayoutFilter, withStatus bool) bool {
	if f.InstructorID != nil && p.InstructorID != *f.InstructorID {
		return false
	}
	if f.CourseID != nil && p.CourseID != *f.CourseID {
		return false
	}
	if withStatus && f.Status != nil && p.Status != *f.Status {
		return false
	}
	return true
}

type payoutEventRepo struct{ *repos }

func (r payoutEventRepo) Create(_ context.Context, event *domain.PayoutEvent) error {
	return r.view(func(st *state) error {
		st.payoutEvents = append(st.payoutEvents, *event)
		return nil
	})
}

func (r payoutEventRepo) ListByPayoutID(_ context.Context, payoutID uuid.UUID) ([]domain.PayoutEvent, error) {
	var out []domain.PayoutEvent
	err := r.view(func(st *state) error {
		for _, e := range st.payoutEvents {
			if e.PayoutID == payoutID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

type transactionLogRepo struct{ *repos }

func (r transactionLogRepo) Create(_ context.Context, entry *domain.TransactionLog) error {
	return r.view(func(st *state) error {
		if entry.Amount < 0 || (entry.PaymentID == nil) == (entry.PayoutID == nil) {
			return fmt.Errorf("Create: %w: malformed transaction log", domain.ErrInvariantViolation)
		}
		st.logs = append(st.logs, *entry)
		return nil
	})
}

func (r transactionLogRepo) SumByType(_ context.Context, courseID uuid.UUID) (map[domain.TransactionType]int64, error) {
	sums := make(map[domain.TransactionType]int64)
	err := r.view(func(st *state) error {
		for _, e := range st.logs {
			if e.CourseID == courseID {
				sums[e.Type] += e.Amount
			}
		}
		return nil
	})
	return sums, err
}

func (r transactionLogRepo) ListByCourse(_ context.Context, courseID uuid.UUID) ([]domain.TransactionLog, error) {
	var out []domain.TransactionLog
	err := r.view(func(st *state) error {
		for _, e := range st.logs {
			if e.CourseID == courseID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}
