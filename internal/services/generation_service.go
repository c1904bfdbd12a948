package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baharkarakas/resumeforge/internal/api/validate"
	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/metrics"
	"github.com/baharkarakas/resumeforge/internal/models"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
)

const (
	GenerationCost int64 = 1

	MaxJobDescriptionLen = 20000
	MaxResumeSectionLen  = 20000
	MaxSectionTypeLen    = 64
	MaxIndustryLen       = 128

	defaultRefundTimeout = 10 * time.Second
)

// GenerationService debits one credit, calls the generator, and refunds the
// credit when the call fails.
type GenerationService struct {
	ledger        repo.Ledger
	gen           Generator
	notify        Notifier
	timeout       time.Duration
	refundTimeout time.Duration
}

func NewGenerationService(l repo.Ledger, g Generator, n Notifier, timeout time.Duration) *GenerationService {
	return &GenerationService{
		ledger:        l,
		gen:           g,
		notify:        orNop(n),
		timeout:       timeout,
		refundTimeout: defaultRefundTimeout,
	}
}

func ValidateGeneration(req models.GenerationRequest) error {
	var errs validate.Errs
	errs = errs.Add(
		validate.Required("jobDescription", req.JobDescription),
		validate.Required("resumeSection", req.ResumeSection),
		validate.MaxLen("jobDescription", req.JobDescription, MaxJobDescriptionLen),
		validate.MaxLen("resumeSection", req.ResumeSection, MaxResumeSectionLen),
		validate.MaxLen("sectionType", req.SectionType, MaxSectionTypeLen),
		validate.MaxLen("industry", req.Industry, MaxIndustryLen),
	)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, errs)
	}
	return nil
}

// Generate runs one paid generation for userID.
//
// Errors: ErrInvalidInput and ErrInsufficientCredits leave the ledger
// untouched; ErrStorageUnavailable from the debit is returned as is; any
// generator failure comes back as *apperr.GenerationFailedError after the
// refund was attempted.
func (s *GenerationService) Generate(ctx context.Context, userID string, req models.GenerationRequest) (models.GenerationResult, error) {
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.ResumeSection = strings.TrimSpace(req.ResumeSection)
	req.SectionType = strings.TrimSpace(req.SectionType)
	req.Industry = strings.TrimSpace(req.Industry)
	if err := ValidateGeneration(req); err != nil {
		metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
		return models.GenerationResult{}, err
	}

	ok, err := s.ledger.TryDebit(ctx, userID, GenerationCost)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("storage").Inc()
		return models.GenerationResult{}, err
	}
	if !ok {
		metrics.GenerationsTotal.WithLabelValues("insufficient").Inc()
		return models.GenerationResult{}, apperr.ErrInsufficientCredits
	}
	metrics.LedgerMutationsTotal.WithLabelValues(string(models.EntryDebit)).Inc()
	s.notify.Notify(ctx, events.LedgerEvent{Kind: events.KindDebited, UserID: userID, Amount: GenerationCost})

	res, genErr := s.callGenerator(ctx, req)
	if genErr == nil {
		outcome := "success"
		if res.Degraded {
			outcome = "degraded"
		}
		metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
		res.Normalize()
		return res, nil
	}

	metrics.GenerationsTotal.WithLabelValues("failed").Inc()
	refundErr := s.refund(ctx, userID)
	if refundErr != nil {
		metrics.RefundsTotal.WithLabelValues("failed").Inc()
		slog.ErrorContext(ctx, "refund after failed generation",
			"user_id", userID, "cause", genErr, "err", refundErr)
	} else {
		metrics.RefundsTotal.WithLabelValues("ok").Inc()
		metrics.LedgerMutationsTotal.WithLabelValues(string(models.EntryRefund)).Inc()
		s.notify.Notify(ctx, events.LedgerEvent{Kind: events.KindRefunded, UserID: userID, Amount: GenerationCost})
		slog.WarnContext(ctx, "generation failed, credit refunded",
			"user_id", userID, "cause", apperr.CauseCode(genErr), "err", genErr)
	}
	return models.GenerationResult{}, &apperr.GenerationFailedError{Cause: genErr, RefundErr: refundErr}
}

func (s *GenerationService) callGenerator(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	gctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.gen.Tailor(gctx, req)
	if err == nil {
		return res, nil
	}
	if !isGeneratorErr(err) {
		// an unclassified failure, typically the deadline firing
		err = fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}
	return models.GenerationResult{}, err
}

func isGeneratorErr(err error) bool {
	return errors.Is(err, apperr.ErrUnauthorized) ||
		errors.Is(err, apperr.ErrRateLimited) ||
		errors.Is(err, apperr.ErrUnavailable) ||
		errors.Is(err, apperr.ErrMalformedResponse)
}

// refund must outlive the caller: a client that hung up still gets its
// credit back.
func (s *GenerationService) refund(ctx context.Context, userID string) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refundTimeout)
	defer cancel()
	return s.ledger.Credit(rctx, userID, GenerationCost, models.EntryRefund)
}
