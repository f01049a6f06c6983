// Package genetic implements the population-based heuristic solver back-
// end: individuals are gene vectors of (room, time-slot) pairs indexed by
// RequiredAssignment, evolved by tournament selection, single-point
// crossover and per-child mutation.
package genetic

import (
	"math/rand"
	"sort"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service/constraints"
)

// Base fitness an individual starts from; hard violations and soft penalty
// are subtracted from it. A feasible-and-optimal individual scores exactly
// Base.
const Base = 10000.0

// HardViolationWeight is subtracted from Base per hard-constraint
// violation found in an individual.
const HardViolationWeight = 1000.0

// Config parameterizes one Solve invocation.
type Config struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	Rand           *rand.Rand
	Weights        constraints.Weights
}

// DefaultConfig mirrors the source's defaults: 50 individuals, 100
// generations, 10% mutation rate.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.1,
		Weights:        constraints.DefaultWeights,
	}
}

// Solver is the GA/heuristic back-end.
type Solver struct {
	cfg Config
}

// New constructs a Solver, filling any unset field from DefaultConfig.
func New(cfg Config) *Solver {
	def := DefaultConfig()
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = def.PopulationSize
	}
	if cfg.Generations <= 0 {
		cfg.Generations = def.Generations
	}
	if cfg.MutationRate == 0 {
		cfg.MutationRate = def.MutationRate
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	if cfg.Weights == (constraints.Weights{}) {
		cfg.Weights = def.Weights
	}
	return &Solver{cfg: cfg}
}

// gene is one assignment's candidate placement.
type gene struct {
	RoomID  int64
	SlotIDs []int64
}

// individual is a full candidate schedule: one gene per assignment, in the
// same order as the solver's assignments slice.
type individual struct {
	genes []gene
}

// Solve runs the generational loop and returns the best individual found,
// decoded into Entry rows. It never rejects for hard violations — the
// caller (ScheduleBuilder) must validate before persisting as active.
func (s *Solver) Solve(catalog models.Catalog, assignments []models.RequiredAssignment) []models.Entry {
	sorted := make([]models.RequiredAssignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AssignmentID < sorted[j].AssignmentID })

	domains := make([][]gene, len(sorted))
	for i, a := range sorted {
		domains[i] = geneDomain(catalog, a)
	}

	soft := constraints.NewSoftConstraints(s.cfg.Weights)
	hard := constraints.HardConstraints{}

	population := make([]individual, s.cfg.PopulationSize)
	for i := range population {
		population[i] = s.randomIndividual(domains)
	}

	fitnessOf := func(ind individual) float64 {
		entries := decode(sorted, ind)
		violations := hard.CountViolations(entries, catalog, sorted)
		score := Base - float64(violations)*HardViolationWeight - soft.TotalSoft(entries, catalog)
		if score < 0 {
			score = 0
		}
		return score
	}

	sortByFitnessDesc := func() {
		sort.SliceStable(population, func(i, j int) bool {
			return fitnessOf(population[i]) > fitnessOf(population[j])
		})
	}

	sortByFitnessDesc()

	for gen := 0; gen < s.cfg.Generations; gen++ {
		if fitnessOf(population[0]) >= Base {
			break
		}

		next := make([]individual, 0, s.cfg.PopulationSize)
		next = append(next, population[0], population[min(1, len(population)-1)])

		for len(next) < s.cfg.PopulationSize {
			p1 := s.tournamentSelect(population, fitnessOf)
			p2 := s.tournamentSelect(population, fitnessOf)
			child := s.crossover(p1, p2)
			if s.cfg.Rand.Float64() < s.cfg.MutationRate {
				child = s.mutate(child, domains)
			}
			next = append(next, child)
		}

		population = next
		sortByFitnessDesc()
	}

	return decode(sorted, population[0])
}

func geneDomain(catalog models.Catalog, a models.RequiredAssignment) []gene {
	subject, ok := catalog.SubjectByID(a.SubjectID)
	if !ok {
		return nil
	}
	group, _ := catalog.GroupByID(a.GroupID)

	var rooms []models.Room
	for _, r := range catalog.Rooms {
		if r.Type == subject.RequiredRoomType && r.Capacity >= group.StudentCount {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 {
		rooms = catalog.Rooms
	}

	var genes []gene
	if subject.IsLabBlock() {
		byDay := catalog.SlotsByDay()
		for _, slots := range byDay {
			for start := 0; start+subject.DurationSlots <= len(slots); start++ {
				block := slots[start : start+subject.DurationSlots]
				consecutive := true
				for i := 1; i < len(block); i++ {
					if block[i].Period != block[i-1].Period+1 {
						consecutive = false
						break
					}
				}
				if !consecutive {
					continue
				}
				ids := make([]int64, len(block))
				for i, sl := range block {
					ids[i] = sl.ID
				}
				for _, r := range rooms {
					genes = append(genes, gene{RoomID: r.ID, SlotIDs: ids})
				}
			}
		}
		return genes
	}

	for _, slot := range catalog.NonBreakSlots() {
		for _, r := range rooms {
			genes = append(genes, gene{RoomID: r.ID, SlotIDs: []int64{slot.ID}})
		}
	}
	return genes
}

func (s *Solver) randomIndividual(domains [][]gene) individual {
	genes := make([]gene, len(domains))
	for i, domain := range domains {
		if len(domain) == 0 {
			continue
		}
		genes[i] = domain[s.cfg.Rand.Intn(len(domain))]
	}
	return individual{genes: genes}
}

func (s *Solver) tournamentSelect(population []individual, fitnessOf func(individual) float64) individual {
	best := population[s.cfg.Rand.Intn(len(population))]
	bestFitness := fitnessOf(best)
	for i := 0; i < 2; i++ {
		candidate := population[s.cfg.Rand.Intn(len(population))]
		if f := fitnessOf(candidate); f > bestFitness {
			best = candidate
			bestFitness = f
		}
	}
	return best
}

func (s *Solver) crossover(p1, p2 individual) individual {
	if len(p1.genes) == 0 {
		return p1
	}
	point := s.cfg.Rand.Intn(len(p1.genes))
	child := individual{genes: make([]gene, len(p1.genes))}
	copy(child.genes[:point], p1.genes[:point])
	copy(child.genes[point:], p2.genes[point:])
	return child
}

func (s *Solver) mutate(ind individual, domains [][]gene) individual {
	if len(ind.genes) == 0 {
		return ind
	}
	idx := s.cfg.Rand.Intn(len(ind.genes))
	domain := domains[idx]
	if len(domain) == 0 {
		return ind
	}
	mutated := individual{genes: append([]gene(nil), ind.genes...)}
	mutated.genes[idx] = domain[s.cfg.Rand.Intn(len(domain))]
	return mutated
}

func decode(assignments []models.RequiredAssignment, ind individual) []models.Entry {
	var entries []models.Entry
	var nextID int64 = 1
	for i, a := range assignments {
		if i >= len(ind.genes) {
			continue
		}
		g := ind.genes[i]
		for _, slotID := range g.SlotIDs {
			entries = append(entries, models.Entry{
				ID:           nextID,
				TimeSlotID:   slotID,
				SubjectID:    a.SubjectID,
				RoomID:       g.RoomID,
				GroupID:      a.GroupID,
				TeacherID:    a.TeacherID,
				AssignmentID: a.AssignmentID,
			})
			nextID++
		}
	}
	return entries
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
