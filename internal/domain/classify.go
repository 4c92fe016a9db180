package domain

// Status is the qualitative classification of a flow metric against its
// mapping thresholds.
type Status string

const (
	StatusNoData    Status = "no_data"
	StatusOnTarget  Status = "on_target"
	StatusWatch     Status = "watch"
	StatusAttention Status = "attention"
)

// Classify assigns a status to an average stage duration given the mapping's
// optional min/max day thresholds.
//
// The zero/unconfigured checks must run before the threshold comparison:
// an average of exactly zero means no completed entities, and a mapping with
// a missing threshold is not fully configured. Either condition is NoData,
// never OnTarget.
func Classify(averageDays float64, avgMinDays, avgMaxDays *float64) Status {
	if averageDays == 0 {
		return StatusNoData
	}
	if avgMinDays == nil || avgMaxDays == nil {
		return StatusNoData
	}
	if averageDays <= *avgMinDays {
		return StatusOnTarget
	}
	if averageDays < *avgMaxDays {
		return StatusWatch
	}
	return StatusAttention
}
