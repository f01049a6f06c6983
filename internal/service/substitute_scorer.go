package service

import (
	"strconv"
	"strings"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// SubstituteWeights parameterizes SubstituteScorer, configurable via
// WeightsConfig (the source hardcodes these as a WEIGHTS dict).
type SubstituteWeights struct {
	Availability float64
	Subject      float64
	Workload     float64
}

// DefaultSubstituteWeights mirrors the source's WEIGHTS dict. Its fourth
// entry, same_department:30, is deliberately not carried forward: nothing
// in score_substitute ever reads it, so there is no behavior to preserve.
var DefaultSubstituteWeights = SubstituteWeights{Availability: 100, Subject: 80, Workload: 50}

// SubstituteScorer ranks candidate teachers against a set of time slots a
// class requires covering, given the Entries of the active Version.
type SubstituteScorer struct {
	weights           SubstituteWeights
	maxHoursThreshold int
}

// NewSubstituteScorer constructs a SubstituteScorer. maxHoursThreshold is
// the fallback max-hours figure used when a candidate has none configured.
func NewSubstituteScorer(weights SubstituteWeights, maxHoursThreshold int) *SubstituteScorer {
	if weights == (SubstituteWeights{}) {
		weights = DefaultSubstituteWeights
	}
	if maxHoursThreshold <= 0 {
		maxHoursThreshold = 18
	}
	return &SubstituteScorer{weights: weights, maxHoursThreshold: maxHoursThreshold}
}

// Score evaluates one candidate teacher against the required time slots
// and subjects of the classes needing coverage. taughtSubjects is the
// candidate's own subject names (Catalog.Subjects filtered by TeacherID),
// resolved by the caller since SubstituteScorer holds no DB/catalog
// reference of its own — it scores from the snapshot it's handed.
func (s *SubstituteScorer) Score(candidate models.Teacher, entries []models.Entry, requiredSlots []int64, requiredSubjects, taughtSubjects []string) models.SubstituteScore {
	available, conflicting := s.checkAvailability(candidate.ID, entries, requiredSlots)
	if !available {
		return models.SubstituteScore{
			TeacherID:        candidate.ID,
			TeacherName:      candidate.Name,
			Score:            0,
			Available:        false,
			Reason:           "busy in " + strconv.Itoa(len(conflicting)) + " slots",
			ConflictingSlots: conflicting,
		}
	}

	availabilityScore := s.weights.Availability
	subjectScore := s.subjectExpertiseScore(requiredSubjects, taughtSubjects)
	workloadScore, workload, maxHours := s.workloadScore(candidate, entries)

	return models.SubstituteScore{
		TeacherID:          candidate.ID,
		TeacherName:        candidate.Name,
		Score:              availabilityScore + subjectScore + workloadScore,
		Available:          true,
		AvailabilityScore:  availabilityScore,
		SubjectScore:       subjectScore,
		WorkloadScore:      workloadScore,
		CurrentWorkload:    workload,
		MaxHours:           maxHours,
		TeachesSameSubject: subjectScore > 0,
	}
}

func (s *SubstituteScorer) checkAvailability(teacherID int64, entries []models.Entry, requiredSlots []int64) (bool, []int64) {
	required := make(map[int64]bool, len(requiredSlots))
	for _, slot := range requiredSlots {
		required[slot] = true
	}

	var conflicting []int64
	for _, e := range entries {
		if e.TeacherID == teacherID && required[e.TimeSlotID] {
			conflicting = append(conflicting, e.TimeSlotID)
		}
	}
	return len(conflicting) == 0, conflicting
}

// subjectExpertiseScore mirrors _calculate_subject_expertise_score: exact
// case-insensitive name match wins full credit, a substring match either
// direction wins 0.7x credit, otherwise zero.
func (s *SubstituteScorer) subjectExpertiseScore(requiredSubjects, taughtSubjects []string) float64 {
	taught := make(map[string]bool, len(taughtSubjects))
	for _, name := range taughtSubjects {
		taught[strings.ToLower(name)] = true
	}
	required := make(map[string]bool, len(requiredSubjects))
	for _, name := range requiredSubjects {
		required[strings.ToLower(name)] = true
	}

	for name := range taught {
		if required[name] {
			return s.weights.Subject
		}
	}

	for ts := range taught {
		for rs := range required {
			if strings.Contains(rs, ts) || strings.Contains(ts, rs) {
				return s.weights.Subject * 0.7
			}
		}
	}

	return 0
}

func (s *SubstituteScorer) workloadScore(candidate models.Teacher, entries []models.Entry) (score float64, workload int, maxHours int) {
	for _, e := range entries {
		if e.TeacherID == candidate.ID {
			workload++
		}
	}

	maxHours = candidate.MaxHoursPerWeek
	if maxHours <= 0 {
		maxHours = s.maxHoursThreshold
	}

	utilization := float64(workload) / float64(maxHours) * 100
	score = s.weights.Workload * (1 - utilization/100)
	if score < 0 {
		score = 0
	}
	return score, workload, maxHours
}
