package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsScope narrows a report. A zero scope covers the whole platform.
type AnalyticsScope struct {
	InstructorID *uuid.UUID
	CourseID     *uuid.UUID
}

type EnrollmentCounts struct {
	Enrolled  int
	Completed int
	Dropped   int
}

func (c EnrollmentCounts) Total() int {
	return c.Enrolled + c.Completed + c.Dropped
}

// MonthlyCount is keyed by the first instant of the month in UTC.
type MonthlyCount struct {
	Month time.Time
	Count int
}

type MonthlyRevenue struct {
	Month           time.Time
	Payments        int
	TotalAmount     int64
	PlatformShare   int64
	InstructorShare int64
}
