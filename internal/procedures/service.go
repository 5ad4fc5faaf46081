// Package procedures implements the deterministic backend operations: cost
// quotes, procedure history and recording new procedures.
package procedures

import (
	"context"
	"time"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/intent/namematch"
	"procedure-assistant/internal/intent/vocabulary"
	"procedure-assistant/internal/store"
)

// Policy holds the name-confidence thresholds per operation.
type Policy struct {
	MatchThreshold float64
	// AutoAccept and Confirm apply to AddProcedure: at or above AutoAccept the
	// stored spelling is used, at or above Confirm the caller must confirm.
	AutoAccept float64
	Confirm    float64
	// QueryMinConfidence is the lowest match accepted by GetQuote and ShowHistory.
	QueryMinConfidence float64
	HistoryLimit       int
}

func DefaultPolicy() Policy {
	return Policy{
		MatchThreshold:     namematch.DefaultThreshold,
		AutoAccept:         0.8,
		Confirm:            0.5,
		QueryMinConfidence: namematch.DefaultThreshold,
		HistoryLimit:       5,
	}
}

type Service struct {
	store    store.Store
	matcher  *namematch.Matcher
	vocab    *vocabulary.Vocabulary
	policy   Policy
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

// NewService wires the operations. notifier may be nil.
func NewService(st store.Store, vocab *vocabulary.Vocabulary, policy Policy, notifier Notifier, log logger.Logger) *Service {
	if policy.HistoryLimit <= 0 {
		policy.HistoryLimit = DefaultPolicy().HistoryLimit
	}
	return &Service{
		store:    st,
		matcher:  namematch.New(policy.MatchThreshold),
		vocab:    vocab,
		policy:   policy,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "procedures"}),
		now:      time.Now,
	}
}

// ListDistinctNames exposes the store's canonical names.
func (s *Service) ListDistinctNames(ctx context.Context) ([]string, error) {
	names, err := s.store.ListDistinctNames(ctx)
	if err != nil {
		return nil, apperrors.NewStoreQueryError("list names", err)
	}
	return names, nil
}

// matchDoctor resolves input against a fresh candidate set.
func (s *Service) matchDoctor(ctx context.Context, input string) (namematch.Result, error) {
	names, err := s.ListDistinctNames(ctx)
	if err != nil {
		return namematch.Result{}, err
	}
	res, tier := s.matcher.MatchTier(input, names)
	metrics.NameMatches.WithLabelValues(string(tier)).Inc()
	s.logger.Debug("Doctor name matched", map[string]interface{}{
		"input":      input,
		"matched":    res.MatchedName,
		"confidence": res.Confidence,
		"tier":       string(tier),
	})
	return res, nil
}

// resolveForQuery applies the query policy: any match at or above
// QueryMinConfidence is used, anything else is DOCTOR_NOT_FOUND.
func (s *Service) resolveForQuery(ctx context.Context, input string) (namematch.Result, error) {
	res, err := s.matchDoctor(ctx, input)
	if err != nil {
		return res, err
	}
	if !res.Found() || res.Confidence < s.policy.QueryMinConfidence {
		return res, apperrors.NewDoctorNotFoundError(input)
	}
	return res, nil
}

func (s *Service) procedureName(code string) string {
	if s.vocab == nil {
		return ""
	}
	return s.vocab.ProcedureName(code)
}
