package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
)

const TestPassword = "password123"

func SeedUser(t *testing.T, db *sql.DB, role domain.Role) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@test.com",
		Name:         "Test " + string(role),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(t *testing.T, db *sql.DB, instructorID uuid.UUID, price int64) *domain.Course {
	t.Helper()

	c := &domain.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        "Course " + uuid.NewString()[:8],
		Price:        price,
		Status:       domain.CourseStatusPublished,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO courses (id, instructor_id, title, price, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.InstructorID, c.Title, c.Price, c.Status, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedEnrollment(t *testing.T, db *sql.DB, studentID, courseID uuid.UUID) *domain.Enrollment {
	t.Helper()

	e := &domain.Enrollment{
		ID:         uuid.New(),
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     domain.EnrollmentStatusEnrolled,
		EnrolledAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO enrollments (id, student_id, course_id, status, progress, enrolled_at)
		 VALUES ($1, $2, $3, $4, 0, $5)`,
		e.ID, e.StudentID, e.CourseID, e.Status, e.EnrolledAt,
	)
	if err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func CountTransactionLogs(t *testing.T, db *sql.DB, courseID uuid.UUID, typ domain.TransactionType) int {
	t.Helper()

	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transaction_logs WHERE course_id = $1 AND type = $2`,
		courseID, typ,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count transaction logs: %v", err)
	}
	return n
}
