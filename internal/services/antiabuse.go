package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

// Verifier checks a human-verification token with an external service.
// An empty token must fail with score 0.
type Verifier interface {
	Verify(ctx context.Context, token string) (success bool, score float64, err error)
}

// verification is what the gate learned about the sender.
type verification struct {
	status string
	score  *float64
}

// checkVerification runs the human-verification half of the gate. A missing
// token is only rejected when verification is required; a token that fails
// the score threshold is always rejected.
func (s *ContactService) checkVerification(ctx context.Context, token string) (verification, error) {
	notVerified := verification{status: domain.NotVerified}

	if s.verifier == nil {
		if s.opts.RequireVerification {
			metrics.RecordVerification("rejected")
			s.log.Warn("verification required but no verifier is configured")
			return notVerified, NewVerificationError()
		}
		metrics.RecordVerification("skipped")
		return notVerified, nil
	}
	if token == "" && !s.opts.RequireVerification {
		metrics.RecordVerification("skipped")
		return notVerified, nil
	}

	vctx, cancel := context.WithTimeout(ctx, s.opts.OutboundTimeout)
	defer cancel()

	ok, score, err := s.verifier.Verify(vctx, token)
	if err != nil {
		s.log.Warn("verification unavailable, treating as failed", zap.Error(err))
		ok, score = false, 0
	}
	if !ok || score < s.opts.MinScore {
		metrics.RecordVerification("rejected")
		s.log.Info("verification rejected", zap.Bool("success", ok), zap.Float64("score", score))
		return notVerified, NewVerificationError()
	}

	metrics.RecordVerification("passed")
	return verification{status: domain.Verified, score: &score}, nil
}

// checkFreshness rejects submissions whose client timestamp is further than
// window from now in either direction. A missing timestamp counts as now
// unless requireTimestamp is set.
func checkFreshness(now time.Time, clientTS *time.Time, window time.Duration, requireTimestamp bool) error {
	if clientTS == nil {
		if requireTimestamp {
			return NewExpiredRequestError()
		}
		return nil
	}
	if clientTS.Before(now.Add(-window)) || clientTS.After(now.Add(window)) {
		return NewExpiredRequestError()
	}
	return nil
}
