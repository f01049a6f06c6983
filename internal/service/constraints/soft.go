package constraints

import (
	"math"
	"sort"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// Weights configures the per-penalty multipliers used by TotalSoft. The
// zero value is invalid; use DefaultWeights or a value sourced from
// config.WeightsConfig.
type Weights struct {
	GapPenalty         float64
	BalancePenalty     float64
	ConsecutivePenalty float64
}

// DefaultWeights mirrors the hardcoded constants of the weights' origin:
// gaps cost 10 each, balance is 5x the population stddev of teacher load,
// consecutive runs beyond 3 periods cost 8 per excess period.
var DefaultWeights = Weights{
	GapPenalty:         10,
	BalancePenalty:     5,
	ConsecutivePenalty: 8,
}

// SoftConstraints groups the additive penalty functions minimized by the
// GA solver and reported by the CSP path for parity.
type SoftConstraints struct {
	Weights Weights
}

// NewSoftConstraints builds a SoftConstraints evaluator for the given
// weights.
func NewSoftConstraints(w Weights) SoftConstraints {
	return SoftConstraints{Weights: w}
}

type teacherDay struct {
	teacherID int64
	day       models.Weekday
}

// periodsPerTeacherDay returns, for every (teacher, day) with at least one
// non-break entry, the sorted list of periods occupied.
func periodsPerTeacherDay(entries []models.Entry, catalog models.Catalog) map[teacherDay][]int {
	out := map[teacherDay][]int{}
	for _, e := range entries {
		slot, ok := catalog.TimeSlotByID(e.TimeSlotID)
		if !ok || slot.IsBreak {
			continue
		}
		key := teacherDay{e.TeacherID, slot.Day}
		out[key] = append(out[key], slot.Period)
	}
	for k := range out {
		sort.Ints(out[k])
	}
	return out
}

// GapPenalty: for each (teacher, day), let periods of non-break entries be
// p_1<...<p_k; gaps = (p_k - p_1 + 1) - k. Penalized at Weights.GapPenalty
// per gap.
func (s SoftConstraints) GapPenalty(entries []models.Entry, catalog models.Catalog) float64 {
	total := 0.0
	for _, periods := range periodsPerTeacherDay(entries, catalog) {
		if len(periods) == 0 {
			continue
		}
		span := periods[len(periods)-1] - periods[0] + 1
		gaps := span - len(periods)
		if gaps > 0 {
			total += float64(gaps) * s.Weights.GapPenalty
		}
	}
	return total
}

// BalancePenalty is 5x the population standard deviation of per-teacher
// entry counts (non-break entries only).
func (s SoftConstraints) BalancePenalty(entries []models.Entry, catalog models.Catalog) float64 {
	counts := map[int64]int{}
	for _, t := range catalog.Teachers {
		counts[t.ID] = 0
	}
	for _, e := range entries {
		slot, ok := catalog.TimeSlotByID(e.TimeSlotID)
		if ok && slot.IsBreak {
			continue
		}
		counts[e.TeacherID]++
	}
	if len(counts) == 0 {
		return 0
	}

	values := make([]float64, 0, len(counts))
	var sum float64
	for _, c := range counts {
		values = append(values, float64(c))
		sum += float64(c)
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)

	return stddev * s.Weights.BalancePenalty
}

// ConsecutivePenalty: for each (teacher, day), the longest run L of
// consecutive periods; excess = max(0, L-3), penalized at
// Weights.ConsecutivePenalty per excess period.
func (s SoftConstraints) ConsecutivePenalty(entries []models.Entry, catalog models.Catalog) float64 {
	total := 0.0
	for _, periods := range periodsPerTeacherDay(entries, catalog) {
		longest := longestRun(periods)
		excess := longest - 3
		if excess > 0 {
			total += float64(excess) * s.Weights.ConsecutivePenalty
		}
	}
	return total
}

func longestRun(sortedPeriods []int) int {
	if len(sortedPeriods) == 0 {
		return 0
	}
	longest := 1
	current := 1
	for i := 1; i < len(sortedPeriods); i++ {
		if sortedPeriods[i] == sortedPeriods[i-1]+1 {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// TotalSoft sums every registered penalty. New penalties can be added here
// without touching either solver.
func (s SoftConstraints) TotalSoft(entries []models.Entry, catalog models.Catalog) float64 {
	return s.GapPenalty(entries, catalog) + s.BalancePenalty(entries, catalog) + s.ConsecutivePenalty(entries, catalog)
}
