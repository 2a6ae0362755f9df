package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/schedule"
)

// MaxReasonLength is the limit applied to justification text after
// whitespace collapsing.
const MaxReasonLength = 180

// ComplianceGate decides whether a clock-out is early relative to the
// published schedule and enforces the justification-text policy.
type ComplianceGate struct {
	schedule schedule.Provider
}

func NewComplianceGate(provider schedule.Provider) *ComplianceGate {
	return &ComplianceGate{schedule: provider}
}

// ScheduleFor returns the user's shift assignment for the given date, or nil
// when the schedule service has nothing for that day.
func (g *ComplianceGate) ScheduleFor(ctx context.Context, userID int64, date time.Time) (*model.ShiftAssignment, error) {
	assignment, err := g.schedule.ShiftFor(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift assignment: %w", err)
	}
	return assignment, nil
}

// IsEarly reports whether clocking out at the given instant would be an early
// exit. Without an assignment for the day a clock-out is never early.
func (g *ComplianceGate) IsEarly(ctx context.Context, userID int64, at time.Time) (bool, error) {
	assignment, err := g.ScheduleFor(ctx, userID, at)
	if err != nil {
		return false, err
	}
	if assignment == nil {
		return false, nil
	}
	return at.Before(assignment.EndTime), nil
}

// SanitizeReason validates and normalizes justification text: pictographic
// runes are stripped before any other check, whitespace is collapsed, and the
// result must be non-empty, at most MaxReasonLength runes, and contain only
// letters, spaces, periods and commas. allowDigits additionally permits
// digits, which rejection reasons may carry.
func SanitizeReason(text string, allowDigits bool) (string, error) {
	stripped := stripPictographs(text)
	collapsed := strings.Join(strings.Fields(stripped), " ")

	if collapsed == "" {
		return "", model.ErrReasonEmpty
	}

	runes := []rune(collapsed)
	if len(runes) > MaxReasonLength {
		return "", model.ErrReasonTooLong
	}

	for _, r := range runes {
		if unicode.IsLetter(r) || r == ' ' || r == '.' || r == ',' {
			continue
		}
		if allowDigits && unicode.IsDigit(r) {
			continue
		}
		return "", model.ErrReasonDisallowed
	}

	return collapsed, nil
}

// stripPictographs removes emoji and other pictographic code points, along
// with the joiners and variation selectors that compose them.
func stripPictographs(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isPictograph(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPictograph(r rune) bool {
	switch {
	case r == 0x200D: // zero-width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // misc symbols and arrows
		return true
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji blocks incl. flags, skin tones
		return true
	}
	return false
}
