package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"epidash/internal/model"
	"epidash/pkg/utils"
)

// Column names of the simulation CSVs besides the key and measure columns.
const (
	PeriodColumn   = "Time"
	AgeGroupColumn = "AGEGROUP"
	CapacityColumn = "CAPACITY"
)

// Row is one converted record: an observation for region and facility load
// sources, a facility for capacity sources.
type Row struct {
	Kind        model.SourceKind
	Observation model.Observation
	Facility    model.Facility
}

// ConvertRecords turns validated records into typed rows with a pool of
// workers. out is closed once every worker has drained in.
func (r *Runner) ConvertRecords(
	ctx context.Context,
	sources []model.Source,
	in <-chan model.GenericRecord,
	out chan<- Row,
	errs chan<- error,
	workerCount int,
) {
	sourceMap := make(map[string]model.Source, len(sources))
	for _, src := range sources {
		sourceMap[src.URL] = src
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for rec := range in {
				if ctx.Err() != nil {
					continue
				}
				sourceURL, _ := rec[SourceField].(string)
				row, err := convertRecord(rec, sourceMap[sourceURL])
				if err != nil {
					sendErr(ctx, errs, &StageError{Stage: StageConvert, Err: fmt.Errorf("source %s: %w", sourceURL, err)})
					continue
				}
				select {
				case <-ctx.Done():
				case out <- row:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
}

func convertRecord(rec model.GenericRecord, src model.Source) (Row, error) {
	keyColumn := src.DefaultKeyColumn()
	key, ok := stringField(rec, keyColumn)
	if !ok {
		return Row{}, fmt.Errorf("missing key column %s", keyColumn)
	}

	switch src.Kind {
	case model.SourceFacilities:
		capacity, ok := numberField(rec, CapacityColumn)
		if !ok {
			return Row{}, fmt.Errorf("facility %s: missing or non-numeric %s", key, CapacityColumn)
		}
		if capacity < 0 {
			return Row{}, fmt.Errorf("facility %s: negative capacity %v", key, capacity)
		}
		return Row{Kind: src.Kind, Facility: model.Facility{Name: key, Capacity: capacity}}, nil

	case model.SourceRegions, model.SourceFacilityLoad:
		obs, err := convertObservation(rec, key)
		if err != nil {
			return Row{}, err
		}
		return Row{Kind: src.Kind, Observation: obs}, nil

	default:
		return Row{}, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func convertObservation(rec model.GenericRecord, key string) (model.Observation, error) {
	obs := model.Observation{Key: key}

	period, ok := numberField(rec, PeriodColumn)
	if !ok || period != math.Trunc(period) {
		return obs, fmt.Errorf("%s: %s must be an integer, got %v", key, PeriodColumn, rec[PeriodColumn])
	}
	obs.Period = int(period)

	obs.AgeGroup, ok = stringField(rec, AgeGroupColumn)
	if !ok {
		return obs, fmt.Errorf("%s: missing %s", key, AgeGroupColumn)
	}

	found := 0
	for column, v := range rec {
		m, err := model.ParseMeasure(column)
		if errors.Is(err, model.ErrInvalidMeasure) {
			continue
		}
		value, ok := utils.Numeric(v)
		if !ok {
			return obs, fmt.Errorf("%s: measure %s must be numeric, got %v", key, column, v)
		}
		obs.Values[m] = value
		found++
	}
	if found == 0 {
		return obs, fmt.Errorf("%s: no measure columns", key)
	}
	return obs, nil
}

func stringField(rec model.GenericRecord, column string) (string, bool) {
	switch v := rec[column].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func numberField(rec model.GenericRecord, column string) (float64, bool) {
	return utils.Numeric(rec[column])
}
