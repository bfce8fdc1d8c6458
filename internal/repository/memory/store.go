// Package memory is an in-process implementation of store.Store used by
// service tests. Transactions are serialised by a single mutex and run
// against a copy of the state that replaces the original only on commit.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

type state struct {
	users        map[uuid.UUID]domain.User
	courses      map[uuid.UUID]domain.Course
	enrollments  map[uuid.UUID]domain.Enrollment
	payments     map[uuid.UUID]domain.Payment
	payouts      map[uuid.UUID]domain.Payout
	payoutEvents []domain.PayoutEvent
	logs         []domain.TransactionLog
}

func newState() *state {
	return &state{
		users:       make(map[uuid.UUID]domain.User),
		courses:     make(map[uuid.UUID]domain.Course),
		enrollments: make(map[uuid.UUID]domain.Enrollment),
		payments:    make(map[uuid.UUID]domain.Payment),
		payouts:     make(map[uuid.UUID]domain.Payout),
	}
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		courses:      maps.Clone(s.courses),
		enrollments:  maps.Clone(s.enrollments),
		payments:     maps.Clone(s.payments),
		payouts:      maps.Clone(s.payouts),
		payoutEvents: append([]domain.PayoutEvent(nil), s.payoutEvents...),
		logs:         append([]domain.TransactionLog(nil), s.logs...),
	}
}

type Store struct {
	mu    sync.Mutex
	state *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(&repos{store: s, tx: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) Users() store.UserRepository             { return s.autocommit().Users() }
func (s *Store) Courses() store.CourseRepository         { return s.autocommit().Courses() }
func (s *Store) Enrollments() store.EnrollmentRepository { return s.autocommit().Enrollments() }
func (s *Store) Payments() store.PaymentRepository       { return s.autocommit().Payments() }
func (s *Store) Payouts() store.PayoutRepository         { return s.autocommit().Payouts() }
func (s *Store) PayoutEvents() store.PayoutEventRepository {
	return s.autocommit().PayoutEvents()
}
func (s *Store) TransactionLogs() store.TransactionLogRepository {
	return s.autocommit().TransactionLogs()
}

func (s *Store) autocommit() *repos {
	return &repos{store: s}
}

// Seed helpers stand in for the collaborators that own these rows.

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

func (s *Store) AddCourse(c domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.courses[c.ID] = c
}

func (s *Store) AddEnrollment(e domain.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.enrollments[e.ID] = e
}

// AddPayment inserts a payment as-is, bypassing settlement.
func (s *Store) AddPayment(p domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.payments[p.ID] = p
}

func (s *Store) AddPayout(p domain.Payout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.payouts[p.ID] = p
}

func (s *Store) TransactionLogsSnapshot() []domain.TransactionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TransactionLog(nil), s.state.logs...)
}

func (s *Store) PayoutsSnapshot() []domain.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Payout, 0, len(s.state.payouts))
	for _, p := range s.state.payouts {
		out = append(out, p)
	}
	return out
}
