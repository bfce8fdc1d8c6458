package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

type userRepo struct{ *repos }

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.view(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.view(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("GetByEmail: %w", domain.ErrNotFound)
	})
	return out, err
}

type courseRepo struct{ *repos }

func (r courseRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	var out *domain.Course
	err := r.view(func(st *state) error {
		c, ok := st.courses[id]
		if !ok {
			return fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: a transaction already holds the
// store mutex for its whole lifetime.
func (r courseRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r courseRepo) ListByInstructor(_ context.Context, instructorID uuid.UUID) ([]domain.Course, error) {
	var out []domain.Course
	err := r.view(func(st *state) error {
		for _, c := range st.courses {
			if c.InstructorID == instructorID {
				out = append(out, c)
			}
		}
		return nil
	})
	sortCourses(out)
	return out, err
}

func (r courseRepo) List(_ context.Context) ([]domain.Course, error) {
	var out []domain.Course
	err := r.view(func(st *state) error {
		for _, c := range st.courses {
			out = append(out, c)
		}
		return nil
	})
	sortCourses(out)
	return out, err
}

func sortCourses(cs []domain.Course) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}

type enrollmentRepo struct{ *repos }

func (r enrollmentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	var out *domain.Enrollment
	err := r.view(func(st *state) error {
		e, ok := st.enrollments[id]
		if !ok {
			return fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		out = &e
		return nil
	})
	return out, err
}
