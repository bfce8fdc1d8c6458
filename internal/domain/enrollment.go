package domain

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
)

type Enrollment struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	CourseID    uuid.UUID
	Status      EnrollmentStatus
	Progress    int
	EnrolledAt  time.Time
	CompletedAt *time.Time
	DeletedAt   *time.Time
}

func (e *Enrollment) IsDeleted() bool {
	return e.DeletedAt != nil
}
