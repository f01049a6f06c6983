// Package constraints implements the hard-constraint predicates and
// soft-penalty functions shared by both solver back-ends and by post-hoc
// schedule validation.
package constraints

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// HardConstraints groups the predicates a schedule must satisfy with zero
// violations to be valid. Each method returns human-readable conflict
// descriptions; the schedule is valid iff every returned list is empty.
type HardConstraints struct{}

// TeacherOverlap reports any (teacher, time_slot) pair referenced by more
// than one entry.
func (HardConstraints) TeacherOverlap(entries []models.Entry) []string {
	buckets := map[[2]int64][]models.Entry{}
	for _, e := range entries {
		key := [2]int64{e.TeacherID, e.TimeSlotID}
		buckets[key] = append(buckets[key], e)
	}
	return overlapConflicts(buckets, "teacher")
}

// RoomOverlap reports any (room, time_slot) pair referenced by more than
// one entry.
func (HardConstraints) RoomOverlap(entries []models.Entry) []string {
	buckets := map[[2]int64][]models.Entry{}
	for _, e := range entries {
		key := [2]int64{e.RoomID, e.TimeSlotID}
		buckets[key] = append(buckets[key], e)
	}
	return overlapConflicts(buckets, "room")
}

// GroupOverlap reports any (group, time_slot) pair referenced by more than
// one entry.
func (HardConstraints) GroupOverlap(entries []models.Entry) []string {
	buckets := map[[2]int64][]models.Entry{}
	for _, e := range entries {
		key := [2]int64{e.GroupID, e.TimeSlotID}
		buckets[key] = append(buckets[key], e)
	}
	return overlapConflicts(buckets, "group")
}

func overlapConflicts(buckets map[[2]int64][]models.Entry, dimension string) []string {
	var keys [][2]int64
	for k, bucket := range buckets {
		if len(bucket) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	conflicts := make([]string, 0, len(keys))
	for _, k := range keys {
		conflicts = append(conflicts, fmt.Sprintf("%s %d has %d entries in time slot %d", dimension, k[0], len(buckets[k]), k[1]))
	}
	return conflicts
}

// RoomCapacity reports every entry whose room type doesn't match the
// subject's required room type, or whose room capacity is below the
// group's student count.
func (HardConstraints) RoomCapacity(entries []models.Entry, catalog models.Catalog) []string {
	var conflicts []string
	for _, e := range entries {
		room, ok := catalog.RoomByID(e.RoomID)
		if !ok {
			conflicts = append(conflicts, fmt.Sprintf("entry %d references unknown room %d", e.ID, e.RoomID))
			continue
		}
		subject, ok := catalog.SubjectByID(e.SubjectID)
		if !ok {
			conflicts = append(conflicts, fmt.Sprintf("entry %d references unknown subject %d", e.ID, e.SubjectID))
			continue
		}
		if room.Type != subject.RequiredRoomType {
			conflicts = append(conflicts, fmt.Sprintf("entry %d places subject %d requiring room type %q in room %q (%q)", e.ID, subject.ID, subject.RequiredRoomType, room.Name, room.Type))
		}
		group, ok := catalog.GroupByID(e.GroupID)
		if ok && room.Capacity < group.StudentCount {
			conflicts = append(conflicts, fmt.Sprintf("entry %d places group %q (%d students) in room %q (capacity %d)", e.ID, group.Name, group.StudentCount, room.Name, room.Capacity))
		}
	}
	return conflicts
}

// BreakExclusion reports any entry that references a break time slot.
func (HardConstraints) BreakExclusion(entries []models.Entry, catalog models.Catalog) []string {
	var conflicts []string
	for _, e := range entries {
		slot, ok := catalog.TimeSlotByID(e.TimeSlotID)
		if ok && slot.IsBreak {
			conflicts = append(conflicts, fmt.Sprintf("entry %d is placed in break slot %d", e.ID, e.TimeSlotID))
		}
	}
	return conflicts
}

// LabBlock reports any required assignment for a lab subject that was not
// realized as a run of DurationSlots consecutive-period entries on a
// single day sharing room/teacher/group.
func (HardConstraints) LabBlock(entries []models.Entry, catalog models.Catalog, assignments []models.RequiredAssignment) []string {
	var conflicts []string

	entriesByAssignment := map[int64][]models.Entry{}
	for _, e := range entries {
		entriesByAssignment[e.AssignmentID] = append(entriesByAssignment[e.AssignmentID], e)
	}

	for _, a := range assignments {
		subject, ok := catalog.SubjectByID(a.SubjectID)
		if !ok || !subject.IsLabBlock() {
			continue
		}
		block := entriesByAssignment[a.AssignmentID]
		if len(block) != subject.DurationSlots {
			conflicts = append(conflicts, fmt.Sprintf("assignment %d (lab, duration %d) realized with %d entries", a.AssignmentID, subject.DurationSlots, len(block)))
			continue
		}

		slots := make([]models.TimeSlot, 0, len(block))
		for _, e := range block {
			if e.RoomID != block[0].RoomID || e.TeacherID != block[0].TeacherID || e.GroupID != block[0].GroupID {
				conflicts = append(conflicts, fmt.Sprintf("assignment %d lab block entries disagree on room/teacher/group", a.AssignmentID))
				break
			}
			slot, ok := catalog.TimeSlotByID(e.TimeSlotID)
			if !ok {
				conflicts = append(conflicts, fmt.Sprintf("assignment %d references unknown slot %d", a.AssignmentID, e.TimeSlotID))
				continue
			}
			slots = append(slots, slot)
		}
		if !consecutiveSameDay(slots) {
			conflicts = append(conflicts, fmt.Sprintf("assignment %d lab block is not %d consecutive same-day periods", a.AssignmentID, subject.DurationSlots))
		}
	}
	return conflicts
}

func consecutiveSameDay(slots []models.TimeSlot) bool {
	if len(slots) == 0 {
		return false
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Period < slots[j].Period })
	day := slots[0].Day
	for i, s := range slots {
		if s.Day != day {
			return false
		}
		if i > 0 && s.Period != slots[i-1].Period+1 {
			return false
		}
	}
	return true
}

// RequirementCoverage reports any RequiredAssignment not satisfied exactly
// once (counting a realized lab block as a single satisfaction).
func (HardConstraints) RequirementCoverage(entries []models.Entry, catalog models.Catalog, assignments []models.RequiredAssignment) []string {
	var conflicts []string

	countByAssignment := map[int64]int{}
	for _, e := range entries {
		countByAssignment[e.AssignmentID]++
	}

	for _, a := range assignments {
		expected := 1
		if subject, ok := catalog.SubjectByID(a.SubjectID); ok && subject.IsLabBlock() {
			expected = subject.DurationSlots
		}
		got := countByAssignment[a.AssignmentID]
		if got != expected {
			conflicts = append(conflicts, fmt.Sprintf("assignment %d covered %d times, expected %d", a.AssignmentID, got, expected))
		}
	}
	return conflicts
}

// AllConflicts runs every hard predicate and concatenates the results,
// used by post-hoc validation (AnalyticsReporter) where a full assignment
// list may not be available and lab/coverage checks are skipped.
func (h HardConstraints) AllConflicts(entries []models.Entry, catalog models.Catalog) []string {
	var conflicts []string
	conflicts = append(conflicts, h.TeacherOverlap(entries)...)
	conflicts = append(conflicts, h.RoomOverlap(entries)...)
	conflicts = append(conflicts, h.GroupOverlap(entries)...)
	conflicts = append(conflicts, h.RoomCapacity(entries, catalog)...)
	conflicts = append(conflicts, h.BreakExclusion(entries, catalog)...)
	return conflicts
}

// CountViolations is a convenience used by the GA fitness function: total
// number of hard-constraint violations across all predicates, including
// lab-block and coverage checks.
func (h HardConstraints) CountViolations(entries []models.Entry, catalog models.Catalog, assignments []models.RequiredAssignment) int {
	total := 0
	total += len(h.TeacherOverlap(entries))
	total += len(h.RoomOverlap(entries))
	total += len(h.GroupOverlap(entries))
	total += len(h.RoomCapacity(entries, catalog))
	total += len(h.BreakExclusion(entries, catalog))
	total += len(h.LabBlock(entries, catalog, assignments))
	total += len(h.RequirementCoverage(entries, catalog, assignments))
	return total
}
