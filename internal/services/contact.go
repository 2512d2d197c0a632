package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

const (
	defaultOutboundTimeout = 5 * time.Second
	defaultFreshnessWindow = 5 * time.Minute
	defaultMinScore        = 0.5
)

// User-facing outcomes of an accepted submission.
const (
	MessageDelivered = "Message sent successfully! I'll get back to you within 24 hours."
	MessageDegraded  = "Message received! There was an issue with email delivery, but I'll still get your message."
	MessageReceived  = "Message received successfully! I'll get back to you within 24 hours."
)

// PipelineOptions configures one entry point into the submission pipeline.
type PipelineOptions struct {
	// Source is recorded on every submission created through this pipeline.
	Source string

	AntiAbuseEnabled   bool
	SendAcknowledgment bool
	// RequireVerification rejects submissions without a verification token.
	RequireVerification bool
	// RequireClientTimestamp rejects submissions without a client timestamp
	// instead of treating them as fresh.
	RequireClientTimestamp bool
	MinScore               float64
	FreshnessWindow        time.Duration
	// OutboundTimeout bounds each call to the store and the verifier.
	OutboundTimeout time.Duration

	SuccessMessage  string
	DegradedMessage string
}

func (o PipelineOptions) withDefaults() PipelineOptions {
	if o.MinScore <= 0 {
		o.MinScore = defaultMinScore
	}
	if o.FreshnessWindow <= 0 {
		o.FreshnessWindow = defaultFreshnessWindow
	}
	if o.OutboundTimeout <= 0 {
		o.OutboundTimeout = defaultOutboundTimeout
	}
	if o.SuccessMessage == "" {
		o.SuccessMessage = MessageDelivered
	}
	if o.DegradedMessage == "" {
		o.DegradedMessage = MessageDegraded
	}
	return o
}

// SubmissionStore is the persistence the pipeline needs.
type SubmissionStore interface {
	Create(ctx context.Context, s *domain.Submission) error
	MarkEmailed(ctx context.Context, id string, sentAt time.Time) error
	MarkEmailFailed(ctx context.Context, id string, reason string) error
}

// ClientMetadata is what the transport knows about the sender.
type ClientMetadata struct {
	UserAgent string
	IP        string
}

// SubmitResult describes an accepted submission.
type SubmitResult struct {
	ID      string
	Status  domain.SubmissionStatus
	Message string
	// Delivered is false when the submission was stored but notification failed.
	Delivered bool
}

// ContactService runs contact submissions through validation, the optional
// anti-abuse gate, persistence, notification and the status update.
type ContactService struct {
	store    SubmissionStore
	notifier *Notifier
	verifier Verifier
	opts     PipelineOptions
	log      *zap.Logger
	now      func() time.Time
}

// NewContactService creates a contact service. verifier may be nil, in which
// case token verification is skipped.
func NewContactService(store SubmissionStore, notifier *Notifier, verifier Verifier, opts PipelineOptions, log *zap.Logger) *ContactService {
	return &ContactService{
		store:    store,
		notifier: notifier,
		verifier: verifier,
		opts:     opts.withDefaults(),
		log:      log.Named("contact").With(zap.String("source", opts.Source)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit processes one submission. Validation, verification and freshness
// failures return before anything is stored. Once the submission is stored
// the call succeeds even if notification fails; the outcome is recorded on
// the submission's status.
func (s *ContactService) Submit(ctx context.Context, req SubmissionRequest, meta ClientMetadata) (*SubmitResult, error) {
	valid, err := ValidateSubmission(req)
	if err != nil {
		metrics.RecordContactSubmission(s.opts.Source, "invalid")
		s.log.Info("submission rejected", zap.Error(err))
		return nil, err
	}

	check := verification{status: domain.NotVerified}
	if s.opts.AntiAbuseEnabled {
		check, err = s.checkVerification(ctx, req.VerificationToken)
		if err != nil {
			metrics.RecordContactSubmission(s.opts.Source, "unverified")
			return nil, err
		}
		if err := checkFreshness(s.now(), valid.ClientTimestamp, s.opts.FreshnessWindow, s.opts.RequireClientTimestamp); err != nil {
			metrics.RecordContactSubmission(s.opts.Source, "expired")
			s.log.Info("submission expired", zap.Timep("client_timestamp", valid.ClientTimestamp))
			return nil, err
		}
	}

	sub := &domain.Submission{
		Name:              valid.Name,
		Email:             valid.Email,
		Message:           valid.Message,
		Source:            s.opts.Source,
		UserAgent:         orUnknown(meta.UserAgent),
		IP:                orUnknown(meta.IP),
		Verification:      check.status,
		VerificationScore: check.score,
		SubmittedAt:       valid.ClientTimestamp,
	}

	cctx, cancel := context.WithTimeout(ctx, s.opts.OutboundTimeout)
	err = s.store.Create(cctx, sub)
	cancel()
	if err != nil {
		metrics.RecordContactSubmission(s.opts.Source, "failed")
		s.log.Error("failed to save submission", zap.String("email", sub.Email), zap.Error(err))
		return nil, NewPersistenceError(err)
	}
	s.log.Info("submission saved", zap.String("id", sub.ID), zap.String("email", sub.Email))

	// The submission is stored; the rest must finish even if the client goes away.
	bg := context.WithoutCancel(ctx)
	notifyErr := s.notifier.Notify(bg, sub, s.opts.SendAcknowledgment)
	status := s.updateStatus(bg, sub.ID, notifyErr)

	result := &SubmitResult{ID: sub.ID, Status: status, Delivered: notifyErr == nil}
	if result.Delivered {
		result.Message = s.opts.SuccessMessage
		metrics.RecordContactSubmission(s.opts.Source, "accepted")
	} else {
		result.Message = s.opts.DegradedMessage
		metrics.RecordContactSubmission(s.opts.Source, "degraded")
	}
	return result, nil
}

// updateStatus records the notification outcome and returns the status the
// submission ends up in. A failed update leaves it received.
func (s *ContactService) updateStatus(ctx context.Context, id string, notifyErr error) domain.SubmissionStatus {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OutboundTimeout)
	defer cancel()

	status := domain.StatusEmailed
	var err error
	if notifyErr == nil {
		err = s.store.MarkEmailed(ctx, id, s.now())
	} else {
		status = domain.StatusEmailFailed
		s.log.Warn("notification failed", zap.String("id", id), zap.Error(notifyErr))
		err = s.store.MarkEmailFailed(ctx, id, failureReason(notifyErr))
	}
	if err != nil {
		s.log.Error("failed to update submission status",
			zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return domain.StatusReceived
	}
	return status
}

func orUnknown(v string) string {
	if v == "" {
		return domain.Unknown
	}
	return v
}
