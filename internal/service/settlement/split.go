package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Splitter divides a payment between instructor and platform. The
// instructor share is rounded down so the platform absorbs remainder cents
// and the two shares always sum to the total exactly.
type Splitter struct {
	instructorPct decimal.Decimal
}

func NewSplitter(instructorPct decimal.Decimal) (Splitter, error) {
	if instructorPct.IsNegative() || instructorPct.GreaterThan(hundred) {
		return Splitter{}, fmt.Errorf("NewSplitter: instructor share %s outside [0, 100]", instructorPct)
	}
	return Splitter{instructorPct: instructorPct}, nil
}

func (s Splitter) InstructorPercent() decimal.Decimal {
	return s.instructorPct
}

func (s Splitter) Split(total int64) (platform, instructor int64) {
	instructor = decimal.NewFromInt(total).
		Mul(s.instructorPct).
		Div(hundred).
		Floor().
		IntPart()
	return total - instructor, instructor
}
