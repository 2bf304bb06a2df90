package usecase

import (
	"context"
	"errors"
	"log"

	"prodboard-backend/internal/triage/domain"
)

var (
	ErrOutcomeNotFound = errors.New("outcome not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotPending      = errors.New("outcome is not pending")
)

func (u *triageUsecase) GetOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error) {
	outcome, err := u.outcomes.FindByID(ctx, outcomeID)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, ErrOutcomeNotFound
	}
	if outcome.TenantID != tenantID {
		return nil, ErrUnauthorized
	}
	return outcome, nil
}

func (u *triageUsecase) ListOutcomes(ctx context.Context, tenantID string, status *domain.OutcomeStatus, limit, offset int) ([]*domain.TriageOutcome, int64, error) {
	return u.outcomes.FindByTenant(ctx, tenantID, status, limit, offset)
}

// ApproveOutcome executes the action a pending outcome implies and moves
// it to the matching terminal state: feature/task -> created (new work
// item), correlate_existing -> correlated (status/comment applied to the
// matched item), response -> sent (reply dispatched to the sender).
func (u *triageUsecase) ApproveOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error) {
	outcome, err := u.GetOutcome(ctx, tenantID, outcomeID)
	if err != nil {
		return nil, err
	}
	if outcome.Status != domain.OutcomeStatusPending {
		return nil, ErrNotPending
	}

	fields := outcome.ExtractedFields()
	var terminal domain.OutcomeStatus

	switch outcome.Category {
	case domain.CategoryFeature, domain.CategoryTask:
		if u.writer == nil {
			return nil, errors.New("work item writer not configured")
		}
		itemID, err := u.writer.CreateFromTriage(ctx, tenantID, outcome.ID, outcome.Category, fields)
		if err != nil {
			return nil, err
		}
		outcome.MatchedItemID = itemID
		if err := u.outcomes.SetMatchedItem(ctx, outcome.ID, itemID); err != nil {
			log.Printf("[Triage] Failed to record created item %s on outcome %s: %v", itemID, outcome.ID, err)
		}
		terminal = domain.OutcomeStatusCreated

	case domain.CategoryCorrelateExisting:
		if u.writer == nil {
			return nil, errors.New("work item writer not configured")
		}
		if outcome.MatchedItemID == "" {
			return nil, errors.New("no matched work item to correlate")
		}
		var status, comment string
		if fields.Correlation != nil {
			status = fields.Correlation.Status
			comment = fields.Correlation.Comment
		}
		if err := u.writer.ApplyCorrelation(ctx, outcome.MatchedItemID, status, comment); err != nil {
			return nil, err
		}
		terminal = domain.OutcomeStatusCorrelated

	case domain.CategoryResponse:
		var replyText string
		if fields.Response != nil {
			replyText = fields.Response.ReplyText
		}
		if replyText == "" {
			return nil, errors.New("outcome has no suggested reply text")
		}
		_, err := u.gateway.SendReply(ctx, outcome.SourceMessageID, outcome.ThreadID, replyText, []string{outcome.Sender}, nil)
		if err != nil {
			return nil, err
		}
		terminal = domain.OutcomeStatusSent

	default:
		terminal = domain.OutcomeStatusApproved
	}

	if err := u.outcomes.UpdateStatus(ctx, outcome.ID, terminal); err != nil {
		return nil, err
	}
	outcome.Status = terminal
	return outcome, nil
}

func (u *triageUsecase) RejectOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error) {
	outcome, err := u.GetOutcome(ctx, tenantID, outcomeID)
	if err != nil {
		return nil, err
	}
	if outcome.Status != domain.OutcomeStatusPending {
		return nil, ErrNotPending
	}

	if err := u.outcomes.UpdateStatus(ctx, outcome.ID, domain.OutcomeStatusRejected); err != nil {
		return nil, err
	}
	outcome.Status = domain.OutcomeStatusRejected
	return outcome, nil
}
