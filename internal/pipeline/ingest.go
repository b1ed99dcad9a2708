package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"epidash/internal/model"
	"epidash/pkg/utils"
)

// SourceField is added to every ingested record so later stages can find the
// source it came from.
const SourceField = "SourceURL"

// IngestSource streams the rows of one CSV source into out. An error is
// returned only when the source cannot be read at all; bad rows go to errs.
func (r *Runner) IngestSource(ctx context.Context, source model.Source, retry model.RetryConfig, out chan<- model.GenericRecord, errs chan<- error) (int64, error) {
	r.logger.Info("➡️ starting ingestion", "source", source.URL, "kind", source.Kind)

	body, err := r.open(ctx, source.URL, retry)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := ingestCSV(ctx, source.URL, body, out, errs)
	if err != nil {
		return n, err
	}
	r.logger.Info("📄 CSV ingestion done", "source", source.URL, "records", n)
	return n, nil
}

// StartIngestion ingests all sources in parallel and returns the number of
// records read plus the first source-level error.
func (r *Runner) StartIngestion(ctx context.Context, spec model.ImportSpec, out chan<- model.GenericRecord, errs chan<- error) (int64, error) {
	var (
		wg       sync.WaitGroup
		total    atomic.Int64
		once     sync.Once
		firstErr error
	)

	for _, src := range spec.Sources {
		wg.Add(1)
		go func(s model.Source) {
			defer wg.Done()
			n, err := r.IngestSource(ctx, s, spec.Retry, out, errs)
			total.Add(n)
			if err != nil {
				r.logger.Error("❌ ingestion failed", "source", s.URL, "err", err)
				once.Do(func() { firstErr = fmt.Errorf("source %s: %w", s.URL, err) })
			}
		}(src)
	}

	wg.Wait()
	return total.Load(), firstErr
}

func (r *Runner) open(ctx context.Context, pathOrURL string, retry model.RetryConfig) (io.ReadCloser, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return r.fetch(ctx, pathOrURL, retry)
	}
	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	return f, nil
}

func ingestCSV(ctx context.Context, source string, reader io.Reader, out chan<- model.GenericRecord, errs chan<- error) (int64, error) {
	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	headers, err := csvReader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// pandas exports quote headers and may prefix a BOM
		h = strings.TrimPrefix(h, "\ufeff")
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	var count int64
	line := 1
	for {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		record, err := csvReader.Read()
		line++
		if err == io.EOF {
			return count, nil
		} else if err != nil {
			sendErr(ctx, errs, &StageError{Stage: StageIngest, Err: fmt.Errorf("%s line %d: %w", source, line, err)})
			continue
		}
		if len(record) != len(headers) {
			sendErr(ctx, errs, &StageError{Stage: StageIngest, Err: fmt.Errorf("%s line %d: got %d fields, want %d", source, line, len(record), len(headers))})
			continue
		}

		rec := make(model.GenericRecord, len(headers)+1)
		for i, h := range headers {
			if h == "" {
				continue // pandas index column
			}
			rec[h] = utils.ParseValue(record[i])
		}
		rec[SourceField] = source

		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case out <- rec:
			count++
		}
	}
}

func sendErr(ctx context.Context, errs chan<- error, err error) {
	select {
	case <-ctx.Done():
	case errs <- err:
	}
}

func logEvery(logger *slog.Logger, msg string, n int64, args ...any) {
	if n%1000 == 0 || n <= 3 {
		logger.Debug(msg, append([]any{"count", n}, args...)...)
	}
}
