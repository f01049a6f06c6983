package models

import "time"

// SubstitutionStatus is the state of a per-date teacher override.
type SubstitutionStatus string

const (
	SubstitutionPending   SubstitutionStatus = "pending"
	SubstitutionConfirmed SubstitutionStatus = "confirmed"
	SubstitutionCancelled SubstitutionStatus = "cancelled"
)

// Substitution records a per-date override of an Entry's teacher.
type Substitution struct {
	ID                  int64              `db:"id" json:"id"`
	Date                string             `db:"date" json:"date"`
	EntryID             int64              `db:"entry_id" json:"entry_id"`
	OriginalTeacherID   int64              `db:"original_teacher_id" json:"original_teacher_id"`
	SubstituteTeacherID *int64             `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	Status              SubstitutionStatus `db:"status" json:"status"`
	Reason              *string            `db:"reason" json:"reason,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// SubstituteScore is the scoring breakdown SubstituteScorer produces for
// one candidate against a required set of slots/subjects.
type SubstituteScore struct {
	TeacherID        int64   `json:"teacher_id"`
	TeacherName      string  `json:"teacher_name"`
	Score            float64 `json:"score"`
	Available        bool    `json:"available"`
	Reason           string  `json:"reason,omitempty"`
	ConflictingSlots []int64 `json:"conflicting_slots,omitempty"`

	AvailabilityScore float64 `json:"availability_score,omitempty"`
	SubjectScore      float64 `json:"subject_score,omitempty"`
	WorkloadScore     float64 `json:"workload_score,omitempty"`

	CurrentWorkload    int  `json:"current_workload,omitempty"`
	MaxHours           int  `json:"max_hours,omitempty"`
	TeachesSameSubject bool `json:"teaches_same_subject,omitempty"`
}

// AssignmentDetail describes one affected class in an AssignmentReport.
type AssignmentDetail struct {
	EntryID           int64   `json:"entry_id"`
	Subject           string  `json:"subject"`
	TimeSlot          string  `json:"time_slot"`
	ClassGroup        string  `json:"class_group"`
	Room              string  `json:"room"`
	SubstituteTeacher string  `json:"substitute_teacher,omitempty"`
	ConfidenceScore   float64 `json:"confidence_score,omitempty"`
}

// AssignmentReport is the result of AutoAssignmentEngine.AutoAssign.
type AssignmentReport struct {
	Success                bool               `json:"success"`
	TeacherName            string             `json:"teacher_name,omitempty"`
	Date                   string             `json:"date,omitempty"`
	AffectedClasses        int                `json:"affected_classes"`
	SubstituteAssigned     string             `json:"substitute_assigned,omitempty"`
	SubstituteID           *int64             `json:"substitute_id,omitempty"`
	ConfidenceScore        float64            `json:"confidence_score,omitempty"`
	Assignments            []AssignmentDetail `json:"assignments,omitempty"`
	AlternativeSubstitutes []SubstituteScore  `json:"alternative_substitutes,omitempty"`
	NotificationSent       bool               `json:"notification_sent"`
	Message                string             `json:"message,omitempty"`
	Error                  string             `json:"error,omitempty"`
	Reason                 string             `json:"reason,omitempty"`
}
