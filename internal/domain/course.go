package domain

import (
	"time"

	"github.com/google/uuid"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

type Course struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Title        string
	Price        int64
	Status       CourseStatus
	CreatedAt    time.Time
}

func (c *Course) IsFree() bool {
	return c.Price <= 0
}
