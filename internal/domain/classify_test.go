package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func days(v float64) *float64 {
	return &v
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		average    float64
		avgMinDays *float64
		avgMaxDays *float64
		expected   Status
	}{
		{"zero average is no data even with thresholds", 0, days(1), days(10), StatusNoData},
		{"missing min threshold is no data", 5, nil, days(10), StatusNoData},
		{"missing max threshold is no data", 5, days(1), nil, StatusNoData},
		{"both thresholds missing is no data", 5, nil, nil, StatusNoData},
		{"below min is on target", 0.5, days(1), days(10), StatusOnTarget},
		{"equal to min is on target", 1, days(1), days(10), StatusOnTarget},
		{"between min and max is watch", 5, days(1), days(10), StatusWatch},
		{"just under max is watch", 9.99, days(1), days(10), StatusWatch},
		{"equal to max is attention", 10, days(1), days(10), StatusAttention},
		{"above max is attention", 42, days(1), days(10), StatusAttention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.average, tt.avgMinDays, tt.avgMaxDays))
		})
	}
}

func TestClassify_ZeroCheckShortCircuitsThresholds(t *testing.T) {
	// A zero average with a zero min threshold must not read as OnTarget.
	assert.Equal(t, StatusNoData, Classify(0, days(0), days(10)))
}
