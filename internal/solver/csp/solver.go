// Package csp implements the feasibility-only constraint solver: boolean
// decision variables x[assignment, room, slot] with cardinality
// constraints, encoded and searched directly (no external constraint
// library is reachable from this stack) via backtracking with
// forward-checking, bounded by a wall-clock deadline.
package csp

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// DefaultTimeout is the wall-clock budget the solver searches within
// before declaring Infeasible, per spec.
const DefaultTimeout = 60 * time.Second

// Config parameterizes one solve invocation.
type Config struct {
	Timeout time.Duration
}

// Solver is the CSP/feasibility back-end.
type Solver struct {
	cfg Config
}

// New constructs a Solver. A zero or negative Timeout falls back to
// DefaultTimeout.
func New(cfg Config) *Solver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Solver{cfg: cfg}
}

// ErrInfeasible is returned when the deadline elapses or the search space
// is exhausted without finding a schedule satisfying every hard
// constraint.
var ErrInfeasible = errInfeasible{}

type errInfeasible struct{}

func (errInfeasible) Error() string { return "no feasible schedule found" }

// placement is one candidate (room, block-of-slots) for an assignment.
// Unit-duration assignments have len(SlotIDs) == 1.
type placement struct {
	RoomID  int64
	SlotIDs []int64
	Day     models.Weekday
}

// Solve searches for a schedule realizing every RequiredAssignment exactly
// once (lab assignments as a contiguous block), subject to teacher/room/
// group exclusivity. It returns ErrInfeasible on timeout or exhaustion.
func (s *Solver) Solve(ctx context.Context, catalog models.Catalog, assignments []models.RequiredAssignment) ([]models.Entry, error) {
	deadline := time.Now().Add(s.cfg.Timeout)

	ordered := make([]models.RequiredAssignment, len(assignments))
	copy(ordered, assignments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AssignmentID < ordered[j].AssignmentID })

	candidates := make([][]placement, len(ordered))
	for i, a := range ordered {
		candidates[i] = s.candidatesFor(catalog, a)
	}

	// Most-constrained-variable first: assignments with fewer legal
	// placements are searched earlier, reducing wasted backtracking.
	order := make([]int, len(ordered))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(candidates[order[i]]) < len(candidates[order[j]])
	})

	state := newSearchState(len(ordered))
	assignment := make([]int, len(ordered)) // chosen candidate index per assignment, -1 = unassigned
	for i := range assignment {
		assignment[i] = -1
	}

	if !s.backtrack(deadline, order, 0, ordered, candidates, state, assignment) {
		return nil, ErrInfeasible
	}

	var entries []models.Entry
	var nextID int64 = 1
	for i, a := range ordered {
		p := candidates[i][assignment[i]]
		for _, slotID := range p.SlotIDs {
			entries = append(entries, models.Entry{
				ID:           nextID,
				TimeSlotID:   slotID,
				SubjectID:    a.SubjectID,
				RoomID:       p.RoomID,
				GroupID:      a.GroupID,
				TeacherID:    a.TeacherID,
				AssignmentID: a.AssignmentID,
			})
			nextID++
		}
	}
	return entries, nil
}

func (s *Solver) candidatesFor(catalog models.Catalog, a models.RequiredAssignment) []placement {
	subject, ok := catalog.SubjectByID(a.SubjectID)
	if !ok {
		return nil
	}

	group, _ := catalog.GroupByID(a.GroupID)

	rooms := make([]models.Room, 0, len(catalog.Rooms))
	for _, r := range catalog.Rooms {
		if r.Type != subject.RequiredRoomType {
			continue
		}
		if r.Capacity < group.StudentCount {
			continue
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	var placements []placement

	if subject.IsLabBlock() {
		byDay := catalog.SlotsByDay()
		days := make([]models.Weekday, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

		for _, day := range days {
			slots := byDay[day]
			for start := 0; start+subject.DurationSlots <= len(slots); start++ {
				block := slots[start : start+subject.DurationSlots]
				if !isConsecutive(block) {
					continue
				}
				ids := make([]int64, len(block))
				for i, sl := range block {
					ids[i] = sl.ID
				}
				for _, room := range rooms {
					placements = append(placements, placement{RoomID: room.ID, SlotIDs: ids, Day: day})
				}
			}
		}
		return placements
	}

	for _, slot := range catalog.NonBreakSlots() {
		for _, room := range rooms {
			placements = append(placements, placement{RoomID: room.ID, SlotIDs: []int64{slot.ID}, Day: slot.Day})
		}
	}
	sort.Slice(placements, func(i, j int) bool {
		if placements[i].SlotIDs[0] != placements[j].SlotIDs[0] {
			return placements[i].SlotIDs[0] < placements[j].SlotIDs[0]
		}
		return placements[i].RoomID < placements[j].RoomID
	})
	return placements
}

func isConsecutive(slots []models.TimeSlot) bool {
	for i := 1; i < len(slots); i++ {
		if slots[i].Period != slots[i-1].Period+1 {
			return false
		}
	}
	return true
}

// searchState tracks which (teacher,slot), (room,slot) and (group,slot)
// pairs are currently occupied, for O(1) conflict checks during search.
type searchState struct {
	teacherSlot map[[2]int64]bool
	roomSlot    map[[2]int64]bool
	groupSlot   map[[2]int64]bool
}

func newSearchState(n int) *searchState {
	return &searchState{
		teacherSlot: make(map[[2]int64]bool, n),
		roomSlot:    make(map[[2]int64]bool, n),
		groupSlot:   make(map[[2]int64]bool, n),
	}
}

func (st *searchState) fits(a models.RequiredAssignment, p placement) bool {
	for _, slotID := range p.SlotIDs {
		if st.teacherSlot[[2]int64{a.TeacherID, slotID}] {
			return false
		}
		if st.roomSlot[[2]int64{p.RoomID, slotID}] {
			return false
		}
		if st.groupSlot[[2]int64{a.GroupID, slotID}] {
			return false
		}
	}
	return true
}

func (st *searchState) place(a models.RequiredAssignment, p placement) {
	for _, slotID := range p.SlotIDs {
		st.teacherSlot[[2]int64{a.TeacherID, slotID}] = true
		st.roomSlot[[2]int64{p.RoomID, slotID}] = true
		st.groupSlot[[2]int64{a.GroupID, slotID}] = true
	}
}

func (st *searchState) unplace(a models.RequiredAssignment, p placement) {
	for _, slotID := range p.SlotIDs {
		delete(st.teacherSlot, [2]int64{a.TeacherID, slotID})
		delete(st.roomSlot, [2]int64{p.RoomID, slotID})
		delete(st.groupSlot, [2]int64{a.GroupID, slotID})
	}
}

// backtrack assigns order[depth:] recursively. Returns true once every
// variable at and after depth is assigned.
func (s *Solver) backtrack(deadline time.Time, order []int, depth int, assignments []models.RequiredAssignment, candidates [][]placement, state *searchState, chosen []int) bool {
	if depth == len(order) {
		return true
	}
	if time.Now().After(deadline) {
		return false
	}

	idx := order[depth]
	a := assignments[idx]
	for ci, p := range candidates[idx] {
		if !state.fits(a, p) {
			continue
		}
		state.place(a, p)
		chosen[idx] = ci
		if s.backtrack(deadline, order, depth+1, assignments, candidates, state, chosen) {
			return true
		}
		state.unplace(a, p)
		chosen[idx] = -1
	}
	return false
}
