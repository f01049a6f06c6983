package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service/constraints"
	"github.com/noah-isme/sma-adp-api/internal/solver/csp"
	"github.com/noah-isme/sma-adp-api/internal/solver/genetic"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

type lessonLoader interface {
	LoadLessons(ctx context.Context) ([]models.Lesson, error)
}

type versionWriter interface {
	Create(ctx context.Context, v *models.Version) error
	UpdateStatus(ctx context.Context, id int64, status models.VersionStatus, isValid bool, fitnessScore *float64) error
	WriteEntries(ctx context.Context, versionID int64, entries []models.Entry) error
}

// BuilderConfig parameterizes the two solver back-ends.
type BuilderConfig struct {
	CSP     csp.Config
	Genetic genetic.Config
}

// ScheduleBuilder runs one of the two solver back-ends over the current
// catalog and persists the result as a new Version, grounded on the
// source's csp_solver.py/genetic_solver.py and the ScheduleGeneratorService
// transaction-then-cache shape.
type ScheduleBuilder struct {
	catalog catalogLoader
	lessons lessonLoader
	version versionWriter
	cache   *VersionCache
	queue   *jobs.Queue
	cfg     BuilderConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewScheduleBuilder wires a ScheduleBuilder. queue may be nil at
// construction time and attached afterwards with SetQueue, since the
// queue's own handler is ScheduleBuilder.HandleGenerateJob.
func NewScheduleBuilder(catalog catalogLoader, lessons lessonLoader, version versionWriter, cache *VersionCache, queue *jobs.Queue, cfg BuilderConfig, metrics *MetricsService, logger *zap.Logger) *ScheduleBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleBuilder{catalog: catalog, lessons: lessons, version: version, cache: cache, queue: queue, cfg: cfg, metrics: metrics, logger: logger}
}

// SetQueue attaches the background job queue once it has been constructed
// with HandleGenerateJob as its handler, breaking the construction-order
// cycle between the two.
func (b *ScheduleBuilder) SetQueue(queue *jobs.Queue) {
	b.queue = queue
}

// GenerateAndSave runs the chosen solver synchronously, validates the
// result against every hard constraint, and persists it as a terminal
// Version — active when feasible, failed otherwise. The write to
// timetable_entries is one transaction (VersionRepository.WriteEntries);
// a solver failure never leaves a partial schedule on disk.
func (b *ScheduleBuilder) GenerateAndSave(ctx context.Context, name string, method models.SolverMethod) (*models.Version, error) {
	if !method.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("unknown algorithm %q", method))
	}

	version := &models.Version{Name: name, Algorithm: method, Status: models.VersionProcessing}
	if err := b.version.Create(ctx, version); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create version")
	}

	catalog, err := b.catalog.Load(ctx)
	if err != nil {
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionError, false, nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}
	if catalog.Empty() {
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionError, false, nil)
		return nil, appErrors.ErrInsufficientData
	}

	lessons, err := b.lessons.LoadLessons(ctx)
	if err != nil {
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionError, false, nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	assignments, err := ExpandLessons(lessons)
	if err != nil {
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionError, false, nil)
		return nil, appErrors.ErrInsufficientData
	}

	solveStart := time.Now()
	entries, fitness, solveErr := b.solve(ctx, method, catalog, assignments)
	if solveErr != nil {
		b.metrics.ObserveSolverRun(string(method), "error", time.Since(solveStart))
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionFailed, false, nil)
		return nil, solveErr
	}

	hard := constraints.HardConstraints{}
	violations := hard.CountViolations(entries, catalog, assignments)
	isValid := violations == 0
	if isValid {
		b.metrics.ObserveSolverRun(string(method), "active", time.Since(solveStart))
	} else {
		b.metrics.ObserveSolverRun(string(method), "failed", time.Since(solveStart))
	}

	if err := b.version.WriteEntries(ctx, version.ID, entries); err != nil {
		_ = b.version.UpdateStatus(ctx, version.ID, models.VersionError, false, nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write entries")
	}

	status := models.VersionActive
	if !isValid {
		status = models.VersionFailed
	}
	if err := b.version.UpdateStatus(ctx, version.ID, status, isValid, fitness); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize version")
	}

	version.Status = status
	version.IsValid = isValid
	version.FitnessScore = fitness

	if b.cache != nil {
		b.cache.Set(ctx, models.Schedule{VersionID: version.ID, Entries: entries})
	}

	if !isValid {
		return version, appErrors.ErrInfeasible
	}
	return version, nil
}

// GenerateInBackground enqueues a solve on the shared job queue so the
// caller gets an immediate response while the (potentially 60-second CSP
// or 100-generation GA) search runs out of band, generalizing the source's
// ProposalTTL-style async cushion into a real worker-pool dispatch.
func (b *ScheduleBuilder) GenerateInBackground(ctx context.Context, name string, method models.SolverMethod) error {
	if b.queue == nil {
		return appErrors.Clone(appErrors.ErrInternal, "job queue not configured")
	}
	return b.queue.Enqueue(jobs.Job{
		Type: "generate_schedule",
		Payload: generateJobPayload{
			Name:   name,
			Method: method,
		},
	})
}

type generateJobPayload struct {
	Name   string
	Method models.SolverMethod
}

// HandleGenerateJob is the jobs.Handler entry point wired to the queue for
// "generate_schedule" payloads.
func (b *ScheduleBuilder) HandleGenerateJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generateJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for generate_schedule job")
	}
	_, err := b.GenerateAndSave(ctx, payload.Name, payload.Method)
	if err != nil && err != appErrors.ErrInfeasible {
		return err
	}
	return nil
}

func (b *ScheduleBuilder) solve(ctx context.Context, method models.SolverMethod, catalog models.Catalog, assignments []models.RequiredAssignment) ([]models.Entry, *float64, error) {
	switch method {
	case models.SolverCSP:
		solver := csp.New(b.cfg.CSP)
		entries, err := solver.Solve(ctx, catalog, assignments)
		if err != nil {
			return nil, nil, appErrors.ErrInfeasible
		}
		return entries, nil, nil
	case models.SolverGenetic:
		weights := b.cfg.Genetic.Weights
		if weights == (constraints.Weights{}) {
			weights = constraints.DefaultWeights
		}
		genCfg := b.cfg.Genetic
		genCfg.Weights = weights
		solver := genetic.New(genCfg)
		entries := solver.Solve(catalog, assignments)
		fitness := geneticFitness(weights, catalog, assignments, entries)
		return entries, &fitness, nil
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("unknown algorithm %q", method))
	}
}

func geneticFitness(weights constraints.Weights, catalog models.Catalog, assignments []models.RequiredAssignment, entries []models.Entry) float64 {
	hard := constraints.HardConstraints{}
	soft := constraints.NewSoftConstraints(weights)
	violations := hard.CountViolations(entries, catalog, assignments)
	score := genetic.Base - float64(violations)*genetic.HardViolationWeight - soft.TotalSoft(entries, catalog)
	if score < 0 {
		score = 0
	}
	return score
}
