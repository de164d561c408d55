package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankrot-check/internal/challenge"
	"bankrot-check/internal/record"
	"bankrot-check/internal/roster"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeFatal
)

// attemptResult is what a single search attempt resolved to.
type attemptResult struct {
	outcome outcome
	record  record.CheckRecord
	err     error
}

func done(rec record.CheckRecord) attemptResult {
	return attemptResult{outcome: outcomeDone, record: rec}
}

func retry(reason error) attemptResult {
	return attemptResult{outcome: outcomeRetry, err: reason}
}

func fatal(err error) attemptResult {
	return attemptResult{outcome: outcomeFatal, err: err}
}

// Check looks a subject up in the registry. Challenge pages and transport
// failures are retried with a random delay until MaxAttempts requests were
// made, every other failure ends the check immediately.
//
// Errors are always *CheckError.
func (s *Session) Check(ctx context.Context, subject roster.Subject) (record.CheckRecord, error) {
	ctx, span := tracer.Start(ctx, "session:Check")
	defer span.End()

	fail := func(err error) (record.CheckRecord, error) {
		checkErr := NewCheckError(subject, err)
		span.RecordError(checkErr)
		span.SetStatus(codes.Error, checkErr.Kind.String())
		s.tel.ReportBroken(report_session_check, checkErr, subject.FullName(), checkErr.Kind.String())
		return record.CheckRecord{}, checkErr
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		attemptCounter.Add(ctx, 1)

		res := s.attempt(ctx, subject)
		switch res.outcome {
		case outcomeDone:
			span.SetAttributes(
				attribute.Int("attempts", attempt),
				attribute.String("status", res.record.Status.Code()),
			)
			s.tel.ReportDebug("check result", subject.FullName(), res.record.Values())
			return res.record, nil
		case outcomeFatal:
			return fail(res.err)
		}

		lastErr = res.err
		s.tel.ReportDebug("retrying check", subject.FullName(), attempt, res.err)
		if attempt == s.opts.MaxAttempts {
			break
		}
		err := s.opts.Sleep(ctx, s.jitter())
		if err != nil {
			return fail(err)
		}
	}

	return fail(fmt.Errorf(
		"%w after %d attempts: %w",
		ErrRetryBudgetExhausted, s.opts.MaxAttempts, lastErr,
	))
}

func (s *Session) attempt(ctx context.Context, subject roster.Subject) attemptResult {
	body, err := s.search(ctx, subject)
	if errors.Is(err, ErrRequestFailed) {
		return retry(err)
	}
	if err != nil {
		return fatal(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fatal(fmt.Errorf("parse check response: %w", err))
	}

	if challenge.Classify(doc) == challenge.KindChallenge {
		err := s.refreshCookie(ctx, doc)
		if err != nil {
			return fatal(err)
		}
		return retry(ErrCookieRefreshed)
	}

	rec, ignored, err := ExtractRecord(doc, subject)
	if err != nil {
		return fatal(err)
	}
	if len(ignored) > 0 {
		s.tel.ReportWarning(report_session_extract, "unknown debtors table columns", ignored)
	}
	return done(rec)
}

// refreshCookie solves the challenge on the page and keeps the new cookie.
func (s *Session) refreshCookie(ctx context.Context, doc *goquery.Document) error {
	seeds, err := challenge.ParseSeeds(doc)
	if err != nil {
		return err
	}
	cookie, err := s.opts.Deriver.Derive(seeds, challenge.ModeCBC)
	if err != nil {
		return err
	}
	s.cookie = cookie
	cookieRefreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", s.opts.Endpoint)))
	s.tel.ReportDebug(report_session_refresh_cookie, cookie)
	return nil
}
