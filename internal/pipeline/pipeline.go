package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"epidash/internal/model"
	"epidash/internal/store"

	"github.com/google/uuid"
)

// Stage names recorded with import errors.
const (
	StageIngest   = "ingestion"
	StageValidate = "validation"
	StageConvert  = "conversion"
	StageStore    = "storage"
)

const defaultBatchSize = 500

// StageError is a row-level failure of one pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Observer receives import outcomes, e.g. for metrics.
type Observer interface {
	ObserveImport(status string, stats model.ImportStats)
}

type nopObserver struct{}

func (nopObserver) ObserveImport(string, model.ImportStats) {}

// Runner executes import runs against a store.
type Runner struct {
	store    *store.Store
	logger   *slog.Logger
	client   *http.Client
	observer Observer
}

// NewRunner creates a runner. logger and observer may be nil.
func NewRunner(st *store.Store, logger *slog.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{
		store:    st,
		logger:   logger,
		client:   &http.Client{Timeout: 30 * time.Second},
		observer: observer,
	}
}

// Run imports every source of spec under a new run ID.
func (r *Runner) Run(ctx context.Context, spec model.ImportSpec) (string, model.ImportStats, error) {
	id := uuid.New().String()
	stats, err := r.RunWithID(ctx, id, spec)
	return id, stats, err
}

// RunWithID imports every source of spec as run id. Row-level errors are
// recorded against the run and do not fail it; a source that cannot be read
// or a failed insert does.
func (r *Runner) RunWithID(ctx context.Context, id string, spec model.ImportSpec) (stats model.ImportStats, err error) {
	start := time.Now()
	if len(spec.Sources) == 0 {
		return stats, errors.New("import has no sources")
	}
	workers := spec.Workers.WithDefaults()
	if spec.Retry == (model.RetryConfig{}) {
		spec.Retry = model.DefaultRetryConfig()
	}
	batchSize := spec.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	if err := r.store.SaveImport(id, spec); err != nil {
		return stats, fmt.Errorf("save import: %w", err)
	}
	logger := r.logger.With("import", id)
	logger.Info("🚀 starting import", "sources", len(spec.Sources))

	defer func() {
		stats.Duration = time.Since(start)
		if err != nil {
			r.store.UpdateImportStatus(id, model.ImportFailed)
			r.store.SaveImportError(id, "run", err)
			r.observer.ObserveImport(model.ImportFailed, stats)
			logger.Error("❌ import failed", "err", err, "duration", stats.Duration)
			return
		}
		logger.Info("🏁 import completed", "observations", stats.Observations, "facilities", stats.Facilities, "duration", stats.Duration)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recordsCh := make(chan model.GenericRecord, batchSize)
	validatedCh := make(chan model.GenericRecord, batchSize)
	rowsCh := make(chan Row, batchSize)
	errorCh := make(chan error, batchSize)

	var errWG sync.WaitGroup
	errWG.Add(1)
	go func() {
		defer errWG.Done()
		for e := range errorCh {
			stage := "run"
			var se *StageError
			if errors.As(e, &se) {
				stage = se.Stage
			}
			logger.Warn("⚠️ row rejected", "stage", stage, "err", e)
			if err := r.store.SaveImportError(id, stage, e); err != nil {
				logger.Error("failed to record import error", "err", err)
			}
		}
	}()

	var ingestErr error
	var ingestWG sync.WaitGroup
	ingestWG.Add(1)
	go func() {
		defer ingestWG.Done()
		r.store.UpdateImportStatus(id, model.ImportIngesting)
		stats.Ingested, ingestErr = r.StartIngestion(ctx, spec, recordsCh, errorCh)
		close(recordsCh)
		if ingestErr != nil {
			cancel()
		}
	}()

	r.store.UpdateImportStatus(id, model.ImportValidating)
	r.ValidateRecords(ctx, spec.Sources, recordsCh, validatedCh, errorCh, workers.Validation, &stats)
	r.ConvertRecords(ctx, spec.Sources, validatedCh, rowsCh, errorCh, workers.Convert)

	r.store.UpdateImportStatus(id, model.ImportStoring)
	storeErr := r.storeRows(ctx, rowsCh, batchSize, &stats)
	if storeErr != nil {
		cancel()
		for range rowsCh {
		}
	}

	ingestWG.Wait()
	close(errorCh)
	errWG.Wait()

	switch {
	case ingestErr != nil:
		return stats, ingestErr
	case storeErr != nil:
		return stats, storeErr
	case ctx.Err() != nil:
		return stats, ctx.Err()
	}

	if err := r.store.CompleteImport(id, stats.Observations+stats.Facilities); err != nil {
		return stats, err
	}
	r.observer.ObserveImport(model.ImportCompleted, stats)
	return stats, nil
}

// storeRows batches converted rows into the store until in is closed.
func (r *Runner) storeRows(ctx context.Context, in <-chan Row, batchSize int, stats *model.ImportStats) error {
	batches := map[string][]model.Observation{}
	var facilities []model.Facility

	flush := func(dataset string) error {
		obs := batches[dataset]
		if len(obs) == 0 {
			return nil
		}
		if err := r.store.InsertObservations(ctx, dataset, obs); err != nil {
			return &StageError{Stage: StageStore, Err: err}
		}
		stats.Observations += int64(len(obs))
		batches[dataset] = obs[:0]
		return nil
	}

	for row := range in {
		switch row.Kind {
		case model.SourceFacilities:
			facilities = append(facilities, row.Facility)
		default:
			dataset := store.DatasetRegions
			if row.Kind == model.SourceFacilityLoad {
				dataset = store.DatasetFacilities
			}
			batches[dataset] = append(batches[dataset], row.Observation)
			if len(batches[dataset]) >= batchSize {
				if err := flush(dataset); err != nil {
					return err
				}
			}
		}
	}

	for _, dataset := range []string{store.DatasetRegions, store.DatasetFacilities} {
		if err := flush(dataset); err != nil {
			return err
		}
	}
	if err := r.store.InsertFacilities(ctx, facilities); err != nil {
		return &StageError{Stage: StageStore, Err: err}
	}
	stats.Facilities = int64(len(facilities))
	return nil
}
