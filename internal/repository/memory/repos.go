package memory

import (
	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

// repos binds the repositories either to a transaction's private copy of
// the state or, when tx is nil, to the live state under the store lock.
type repos struct {
	store *Store
	tx    *state
}

func (r *repos) view(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r *repos) Users() store.UserRepository             { return userRepo{r} }
func (r *repos) Courses() store.CourseRepository         { return courseRepo{r} }
func (r *repos) Enrollments() store.EnrollmentRepository { return enrollmentRepo{r} }
func (r *repos) Payments() store.PaymentRepository       { return paymentRepo{r} }
func (r *repos) Payouts() store.PayoutRepository         { return payoutRepo{r} }
func (r *repos) PayoutEvents() store.PayoutEventRepository {
	return payoutEventRepo{r}
}
func (r *repos) TransactionLogs() store.TransactionLogRepository {
	return transactionLogRepo{r}
}
