package scorecard

// Grade buckets a percentage by its gap to a target.
type Grade uint8

const (
	GradeNoData Grade = iota
	GradeMeetsTarget
	GradeSlightlyBelow // gap < 2
	GradeConcerning    // 2 <= gap < 5
	GradePoor          // 5 <= gap < 10
	GradeCritical      // gap >= 10
)

// Targets are the per-metric goals used for grading.
type Targets struct {
	OTP      float64 `json:"otp" yaml:"otp"`
	OTD      float64 `json:"otd" yaml:"otd"`
	Tracking float64 `json:"tracking" yaml:"tracking"`
}

func DefaultTargets() Targets {
	return Targets{OTP: 98.5, OTD: 99.9, Tracking: 100}
}

// OrDefault fills unset (non-positive) targets from DefaultTargets.
func (t Targets) OrDefault() Targets {
	d := DefaultTargets()
	if t.OTP <= 0 {
		t.OTP = d.OTP
	}
	if t.OTD <= 0 {
		t.OTD = d.OTD
	}
	if t.Tracking <= 0 {
		t.Tracking = d.Tracking
	}
	return t
}

func GradeOf(p Percent, target float64) Grade {
	v, ok := p.Value()
	if !ok {
		return GradeNoData
	}
	if v >= target {
		return GradeMeetsTarget
	}
	switch gap := target - v; {
	case gap >= 10:
		return GradeCritical
	case gap >= 5:
		return GradePoor
	case gap >= 2:
		return GradeConcerning
	default:
		return GradeSlightlyBelow
	}
}

func (g Grade) String() string {
	switch g {
	case GradeMeetsTarget:
		return "meets_target"
	case GradeSlightlyBelow:
		return "slightly_below"
	case GradeConcerning:
		return "concerning"
	case GradePoor:
		return "poor"
	case GradeCritical:
		return "critical"
	default:
		return "no_data"
	}
}
