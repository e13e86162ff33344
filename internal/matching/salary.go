package matching

import (
	"errors"
	"strconv"
	"strings"

	"go-jobalert-scheduler/internal/domain"
)

var ErrMalformedSalary = errors.New("malformed salary expectation")

// unit multipliers accepted after a number ("40k", "6 lpa", "6l")
var salaryUnits = []struct {
	suffix string
	factor float64
}{
	{"lakhs", 100000},
	{"lakh", 100000},
	{"lpa", 100000},
	{"k", 1000},
	{"l", 100000},
}

// ParseSalaryBand parses a free-form expectation such as "50000",
// "40,000 - 60,000", "40k to 60k" or "6-8 lpa". A single value sets both
// bounds. Empty input returns (nil, nil).
func ParseSalaryBand(text string) (*domain.SalaryBand, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return nil, nil
	}
	s = strings.NewReplacer(",", "", "₹", "", "$", "", "inr", "", "rs.", "", "rs", "").Replace(s)
	s = strings.ReplaceAll(s, " to ", "-")

	// A unit written once applies to both sides: "6-8 lpa".
	var sharedFactor float64
	for _, u := range salaryUnits {
		trimmed := strings.TrimSpace(s)
		if strings.HasSuffix(trimmed, u.suffix) {
			head := strings.TrimSpace(strings.TrimSuffix(trimmed, u.suffix))
			if strings.Contains(head, "-") && !hasUnit(strings.SplitN(head, "-", 2)[0]) {
				sharedFactor = u.factor
				s = head
			}
			break
		}
	}

	parts := strings.SplitN(s, "-", 2)
	lo, err := parseAmount(parts[0], sharedFactor)
	if err != nil {
		return nil, err
	}
	hi := lo
	if len(parts) == 2 {
		hi, err = parseAmount(parts[1], sharedFactor)
		if err != nil {
			return nil, err
		}
	}
	if lo < 0 || hi < 0 || lo > hi {
		return nil, ErrMalformedSalary
	}

	return &domain.SalaryBand{Min: &lo, Max: &hi}, nil
}

func parseAmount(raw string, factor float64) (int64, error) {
	s := strings.TrimSpace(raw)
	if factor == 0 {
		factor = 1
		for _, u := range salaryUnits {
			if strings.HasSuffix(s, u.suffix) {
				factor = u.factor
				s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
				break
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrMalformedSalary
	}
	return int64(v * factor), nil
}

func hasUnit(s string) bool {
	s = strings.TrimSpace(s)
	for _, u := range salaryUnits {
		if strings.HasSuffix(s, u.suffix) {
			return true
		}
	}
	return false
}
