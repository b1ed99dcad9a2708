package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"epidash/internal/model"
	"epidash/pkg/utils"
)

// ValidateRecords checks ingested records against the rules of their source
// on workerCount goroutines. out is closed once in is drained; stats.Valid
// and stats.Invalid are set before that.
func (r *Runner) ValidateRecords(
	ctx context.Context,
	sources []model.Source,
	in <-chan model.GenericRecord,
	out chan<- model.GenericRecord,
	errs chan<- error,
	workerCount int,
	stats *model.ImportStats,
) {
	rulesBySource := make(map[string]*model.ValidationRules, len(sources))
	for _, src := range sources {
		rulesBySource[src.URL] = src.Validation
	}

	var valid, invalid atomic.Int64
	worker := func(id int) {
		for rec := range in {
			if ctx.Err() != nil {
				continue // keep draining so ingestion can finish
			}
			source, _ := rec[SourceField].(string)
			if err := validateRecord(rec, rulesBySource[source]); err != nil {
				invalid.Add(1)
				sendErr(ctx, errs, &StageError{Stage: StageValidate, Err: fmt.Errorf("%s: %w", source, err)})
				continue
			}
			select {
			case out <- rec:
				logEvery(r.logger, "✅ validated", valid.Add(1), "worker", id)
			case <-ctx.Done():
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id)
		}(i)
	}

	go func() {
		wg.Wait()
		stats.Valid, stats.Invalid = valid.Load(), invalid.Load()
		r.logger.Info("🔍 validation summary", "valid", stats.Valid, "invalid", stats.Invalid)
		close(out)
	}()
}

// validateRecord returns the first rule rec breaks. Bounds are checked in
// field order so the reported error is stable.
func validateRecord(rec model.GenericRecord, rules *model.ValidationRules) error {
	if rules == nil {
		return nil
	}
	for _, field := range rules.RequiredFields {
		if v, ok := rec[field]; !ok || v == "" {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	for _, field := range rules.NumericFields {
		v, ok := rec[field]
		if !ok {
			continue
		}
		if _, numeric := utils.Numeric(v); !numeric {
			return fmt.Errorf("field %s must be numeric, got %T", field, v)
		}
	}
	if err := checkBounds(rec, rules.MinValues, func(v, limit float64) bool { return v < limit }, "below minimum"); err != nil {
		return err
	}
	return checkBounds(rec, rules.MaxValues, func(v, limit float64) bool { return v > limit }, "above maximum")
}

func checkBounds(rec model.GenericRecord, limits map[string]float64, breaks func(v, limit float64) bool, what string) error {
	fields := make([]string, 0, len(limits))
	for f := range limits {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, field := range fields {
		v, ok := utils.Numeric(rec[field])
		if ok && breaks(v, limits[field]) {
			return fmt.Errorf("field %s %s: got %v, limit %v", field, what, v, limits[field])
		}
	}
	return nil
}
