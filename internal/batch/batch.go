// Package batch runs a roster through registry checks and persists a
// record for every subject, failed checks included.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankrot-check/internal/components/assert"
	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/record"
	"bankrot-check/internal/registry"
	"bankrot-check/internal/roster"
	"bankrot-check/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_batch_persist = "batch.persist"
	report_batch_checked = "batch.checked"
)

var tracer = telemetry.Tracer("bankrot.batch")
var meter = telemetry.Meter("bankrot.batch")
var checkCounter, _ = meter.Int64Counter("checks")

// Checker looks a single subject up, *registry.Session implements it.
//
// note: fault injection point
type Checker interface {
	Check(ctx context.Context, subject roster.Subject) (record.CheckRecord, error)
}

type Options struct {
	// Workers is the number of subjects checked at the same time, each
	// worker gets its own Checker.
	Workers    int
	NewChecker func(worker int) (Checker, error)
	Store      store.Store
	Telemetry  telemetry.API
}

// Result is the outcome for one subject. Err holds the check error and/or
// the persistence error, Record is what was (or should have been) written.
type Result struct {
	Subject   roster.Subject
	Record    record.CheckRecord
	Err       error
	Persisted bool
}

type Summary struct {
	Results  []Result
	Duration time.Duration
}

// Count returns how many records ended with the given status.
func (s Summary) Count(status record.Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Record.Status == status {
			n++
		}
	}
	return n
}

// PersistFailures returns how many records could not be written.
func (s Summary) PersistFailures() int {
	n := 0
	for _, r := range s.Results {
		if !r.Persisted {
			n++
		}
	}
	return n
}

// errorRecord is written in place of a check that failed.
func errorRecord(subject roster.Subject) record.CheckRecord {
	return record.CheckRecord{
		LastName:   subject.LastName(),
		FirstName:  subject.FirstName(),
		MiddleName: subject.MiddleName(),
		Status:     record.StatusError,
	}
}

// Run checks every subject and writes its record to the store. A failing
// subject never stops the batch, only a cancelled ctx or a checker that
// cannot be created does. Results are in roster order, subjects skipped
// because of cancellation are left out.
func Run(ctx context.Context, subjects []roster.Subject, opts Options) (Summary, error) {
	assert.NotNil(opts.Telemetry, "telemetry")
	assert.NotNil(opts.Store, "store")
	assert.NotNil(opts.NewChecker, "checker factory")

	tel := telemetry.NewScopedAPI("batch", opts.Telemetry)
	workers := max(opts.Workers, 1)
	workers = min(workers, len(subjects))

	ctx, span := tracer.Start(ctx, "batch:Run")
	defer span.End()
	span.SetAttributes(attribute.Int("subjects", len(subjects)), attribute.Int("workers", workers))

	checkers := make([]Checker, workers)
	for w := range checkers {
		checker, err := opts.NewChecker(w)
		if err != nil {
			return Summary{}, fmt.Errorf("create checker %d: %w", w, err)
		}
		checkers[w] = checker
	}

	start := time.Now()
	results := make([]*Result, len(subjects))

	jobs := make(chan int)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(jobs)
		for i := range subjects {
			select {
			case jobs <- i:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	})

	for _, checker := range checkers {
		group.Go(func() error {
			for i := range jobs {
				if groupCtx.Err() != nil {
					return nil
				}
				res := process(groupCtx, tel, checker, opts.Store, subjects[i])
				results[i] = &res
			}
			return nil
		})
	}

	err := group.Wait()

	summary := Summary{Duration: time.Since(start)}
	for _, r := range results {
		if r != nil {
			summary.Results = append(summary.Results, *r)
		}
	}
	tel.ReportCount(report_batch_checked, int64(len(summary.Results)))

	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

func process(ctx context.Context, tel telemetry.API, checker Checker, out store.Store, subject roster.Subject) Result {
	res := Result{Subject: subject}

	rec, err := checker.Check(ctx, subject)
	if err != nil {
		var checkErr *registry.CheckError
		if !errors.As(err, &checkErr) {
			checkErr = registry.NewCheckError(subject, err)
		}
		tel.ReportDebug("writing error record", subject.FullName(), checkErr.Kind.String())
		res.Err = checkErr
		rec = errorRecord(subject)
	}
	res.Record = rec
	checkCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", rec.Status.Code())))

	// the record is written even when ctx was cancelled mid-check
	err = out.Append(context.WithoutCancel(ctx), rec)
	if err != nil {
		persistErr := &registry.CheckError{Subject: subject, Kind: registry.KindPersistenceFailure, Err: err}
		tel.ReportWarning(report_batch_persist, "record dropped", subject.FullName())
		res.Err = errors.Join(res.Err, persistErr)
		return res
	}
	res.Persisted = true
	return res
}
