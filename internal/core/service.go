package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/metrics"
)

// Service provides the cleansing workflow on top of the session store.
type Service struct {
	store   *SessionStore
	parse   ParseOptions
	loads   *LoadLimiter
	metrics *metrics.Metrics
	sweep   time.Duration
}

// CorrectionResult reports the outcome of one correction.
type CorrectionResult struct {
	Resolved   bool   `json:"resolved"`
	Normalized string `json:"normalized"`
}

// NewService creates a Service from configuration. m may be nil.
func NewService(cfg *config.Config, m *metrics.Metrics) *Service {
	return &Service{
		store: NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions),
		parse: ParseOptions{
			Comma:      cfg.Upload.Comma(),
			LazyQuotes: cfg.Upload.LazyQuotes,
		},
		loads:   NewLoadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		metrics: m,
		sweep:   cfg.Session.SweepInterval,
	}
}

// CreateSession opens a new empty session.
func (s *Service) CreateSession(ctx context.Context) (Summary, error) {
	sess, err := s.store.Create()
	if err != nil {
		logging.FromContext(ctx).Warn("session limit reached", "open", s.store.Len())
		return Summary{}, err
	}

	s.metrics.SetActiveSessions(s.store.Len())
	logging.WithSession(ctx, sess.ID).Info("session created")
	return Summarize(sess), nil
}

// Summary returns the display view of a session.
func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(sess), nil
}

// LoadFile replaces the session's document with an uploaded file.
// The returned summary reflects the session after the attempt, including
// its LastError on failure. ErrTooManyLoads leaves the session untouched.
func (s *Service) LoadFile(ctx context.Context, id, fileName string, data []byte) (Summary, error) {
	log := logging.WithSession(ctx, id, "file", fileName)

	if err := s.loads.Acquire(ctx); err != nil {
		log.Warn("no parse slot available", "active", s.loads.Active(), "error", err)
		return Summary{}, err
	}
	defer s.loads.Release()

	start := time.Now()

	sess, err := s.store.Update(id, func(cur Session) (Session, error) {
		return LoadFile(cur, fileName, data, s.parse)
	})
	if errors.Is(err, ErrSessionNotFound) {
		return Summary{}, err
	}

	s.metrics.ObserveLoad(loadResult(sess, err))
	if sess.State == StateClassified {
		c := sess.Classification
		s.metrics.ObserveClassification(len(c.Valid), len(c.Invalid), len(c.Duplicate))
	}

	if err != nil && sess.State == StateEmpty {
		log.Warn("file rejected", "bytes", len(data), "error", err)
		return Summarize(sess), err
	}

	log.Info("file loaded",
		"bytes", len(data),
		"rows", len(sess.Table.Rows),
		"columns", len(sess.Table.Header),
		"email_column", sess.EmailColumn,
		"duration", time.Since(start),
	)
	return Summarize(sess), nil
}

// SelectColumn classifies the session's table by column.
func (s *Service) SelectColumn(ctx context.Context, id, column string) (Summary, error) {
	log := logging.WithSession(ctx, id, "column", column)

	sess, err := s.store.Update(id, func(cur Session) (Session, error) {
		return SelectColumn(cur, column)
	})
	if errors.Is(err, ErrSessionNotFound) {
		return Summary{}, err
	}
	if err != nil {
		log.Warn("column selection failed", "error", err)
		return Summarize(sess), err
	}

	c := sess.Classification
	s.metrics.ObserveClassification(len(c.Valid), len(c.Invalid), len(c.Duplicate))
	log.Info("rows classified",
		"valid", len(c.Valid),
		"invalid", len(c.Invalid),
		"duplicate", len(c.Duplicate),
	)
	return Summarize(sess), nil
}

// Correct records a candidate email for an invalid row.
func (s *Service) Correct(ctx context.Context, id, rowKey, candidate string) (CorrectionResult, error) {
	var resolved bool

	_, err := s.store.Update(id, func(cur Session) (Session, error) {
		next, ok, err := Correct(cur, rowKey, candidate)
		resolved = ok
		return next, err
	})
	if err != nil {
		return CorrectionResult{}, err
	}

	s.metrics.ObserveCorrection(resolved)
	logging.WithSession(ctx, id).Debug("correction recorded", "resolved", resolved)

	return CorrectionResult{
		Resolved:   resolved,
		Normalized: NormalizeEmail(candidate),
	}, nil
}

// Export serializes the cleaned CSV for download.
func (s *Service) Export(ctx context.Context, id string) (ExportFile, error) {
	var file ExportFile

	_, err := s.store.Update(id, func(cur Session) (Session, error) {
		next, f, err := Export(cur, s.parse.Comma)
		file = f
		return next, err
	})
	if err != nil {
		return ExportFile{}, err
	}

	s.metrics.ObserveExport(file.Rows)
	logging.WithSession(ctx, id).Info("export built",
		"file", file.Name,
		"rows", file.Rows,
		"bytes", len(file.Data),
	)
	return file, nil
}

// Delete discards a session and everything in it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}

	s.metrics.SetActiveSessions(s.store.Len())
	logging.WithSession(ctx, id).Info("session deleted")
	return nil
}

// ActiveLoads returns the number of files being parsed right now.
func (s *Service) ActiveLoads() int {
	return s.loads.Active()
}

// WaitForLoads blocks until in-flight loads finish or ctx is done.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.loads.WaitForDrain(ctx)
}

// StartSweeper expires idle sessions until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context) {
	interval := s.sweep
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s.store.StartSweeper(ctx, interval, s.metrics.SetActiveSessions)
}

func loadResult(sess Session, err error) string {
	switch {
	case err == nil, sess.State != StateEmpty:
		return metrics.LoadOK
	case IsParseError(err):
		return metrics.LoadParseError
	case IsEmptyInput(err):
		return metrics.LoadEmpty
	default:
		return metrics.LoadOther
	}
}
