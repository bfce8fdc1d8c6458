package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const courseColumns = `id, instructor_id, title, price, status, created_at`

type CourseRepository struct {
	db Querier
}

func NewCourseRepository(db Querier) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CourseRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]domain.Course, error) {
	courses, err := r.list(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE instructor_id = $1 ORDER BY created_at, id`,
		instructorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByInstructor: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	courses, err := r.list(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) list(ctx context.Context, query string, args ...any) ([]domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return courses, nil
}

func scanCourse(s scanner) (*domain.Course, error) {
	var c domain.Course
	err := s.Scan(&c.ID, &c.InstructorID, &c.Title, &c.Price, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
