package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"prodboard-backend/internal/triage/domain"
	"prodboard-backend/internal/triage/repository"
	"prodboard-backend/pkg/ai"

	"github.com/google/uuid"
)

const (
	maxStoredErrorLen = 500
	maxBodySnippetLen = 2000
)

// triageUsecase implements TriageUsecase. One instance is safe for
// concurrent use; each ProcessMessage call carries its own run state.
type triageUsecase struct {
	gateway    domain.MailGateway
	model      ai.ModelClient
	outcomes   repository.OutcomeRepository
	validator  ReferenceValidator
	correlator *Correlator
	writer     WorkItemWriter
	notifier   Notifier
}

// NewTriageUsecase creates a new instance of triageUsecase
func NewTriageUsecase(gateway domain.MailGateway, model ai.ModelClient, outcomes repository.OutcomeRepository, validator ReferenceValidator, correlator *Correlator) TriageUsecase {
	return &triageUsecase{
		gateway:    gateway,
		model:      model,
		outcomes:   outcomes,
		validator:  validator,
		correlator: correlator,
	}
}

func (u *triageUsecase) SetWorkItemWriter(writer WorkItemWriter) {
	u.writer = writer
}

func (u *triageUsecase) SetNotifier(notifier Notifier) {
	u.notifier = notifier
}

// triageRun is the per-message state threaded through the workflow steps.
type triageRun struct {
	tenantID string
	sourceID string

	msg            *domain.InboundMessage
	classification domain.ClassificationResult

	// First fatal error of the run. Once set, remaining steps are
	// skipped, but persistence still happens so the failure is
	// observable in the store.
	err error
}

func (r *triageRun) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// ProcessMessage runs the triage state machine for one message:
// parsing -> classifying -> (correlating) -> validating -> persisting ->
// labeling. A fatal error in any step short-circuits the remaining steps
// but still routes through persisting, so every processed non-no_action
// message leaves exactly one audit row.
func (u *triageUsecase) ProcessMessage(ctx context.Context, tenantID, sourceID string) (*TriageResult, error) {
	// Idempotency: an outcome already stored for this source id means the
	// message was processed; return it instead of running again.
	existing, err := u.outcomes.FindBySourceID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("[Triage] Message %s already processed (outcome %s), skipping run", sourceID, existing.ID)
		return &TriageResult{Outcome: existing}, nil
	}

	run := &triageRun{tenantID: tenantID, sourceID: sourceID}

	u.parse(ctx, run)
	u.classify(ctx, run)

	// no_action is the one path that persists nothing: dropping the
	// message is the outcome, and re-evaluation on retry is cheap.
	if run.err == nil && run.classification.Category == domain.CategoryNoAction {
		log.Printf("[Triage] Message %s classified no_action, nothing to store", sourceID)
		return &TriageResult{Skipped: true}, nil
	}

	if run.err == nil && run.classification.Category == domain.CategoryCorrelateExisting {
		u.correlate(ctx, run)
	}

	if err := u.validate(ctx, run); err != nil {
		return nil, err
	}

	outcome, err := u.persist(ctx, run)
	if err != nil {
		return nil, err
	}

	u.label(ctx, run, outcome)

	// Re-read the authoritative stored record (covers stores with
	// server-generated fields). If the lookup misses, hand back the
	// in-memory state rather than failing the caller.
	stored, err := u.outcomes.FindBySourceID(ctx, sourceID)
	if err == nil && stored != nil {
		outcome = stored
	}

	return &TriageResult{Outcome: outcome}, nil
}

// parse fetches the full message from the mail gateway.
func (u *triageUsecase) parse(ctx context.Context, run *triageRun) {
	if run.err != nil {
		return
	}

	msg, err := u.gateway.GetMessage(ctx, run.sourceID)
	if err != nil {
		var gwErr *domain.GatewayError
		if !errors.As(err, &gwErr) {
			err = &domain.GatewayError{Op: "get_message", Err: err}
		}
		run.fail(err)
		return
	}
	run.msg = msg
}

// classify builds the prompt, invokes the model and sanitizes its output.
// Errors here (including malformed model output) are fatal for the run;
// retries are the caller's responsibility and are safe because
// persistence is idempotent by source id.
func (u *triageUsecase) classify(ctx context.Context, run *triageRun) {
	if run.err != nil {
		return
	}

	prompt := BuildClassificationPrompt(run.msg)
	resp, err := u.model.Complete(ctx, prompt)
	if err != nil {
		run.fail(fmt.Errorf("model completion failed: %w", err))
		return
	}

	obj, err := SanitizeResponse(resp)
	if err != nil {
		run.fail(err)
		return
	}

	run.classification = domain.NewClassificationResult(obj)
}

// correlate resolves the matched work item and merges status/comment into
// the correlation fields. Strictly best-effort: failures are logged and
// the run continues with whatever was obtained.
func (u *triageUsecase) correlate(ctx context.Context, run *triageRun) {
	cls := &run.classification
	if cls.Fields.Correlation == nil {
		cls.Fields.Correlation = &domain.CorrelationFields{}
	}
	cor := cls.Fields.Correlation

	text := run.msg.Subject + "\n" + run.msg.BodyText

	if cls.MatchedItemID == "" {
		scopeTenant := cor.TenantID
		if scopeTenant == "" {
			scopeTenant = run.tenantID
		}
		matches, err := u.correlator.FindMatches(ctx, text, scopeTenant, cor.ModuleID)
		if err != nil {
			log.Printf("[Triage] %v", &domain.CorrelationError{Err: err})
		} else if len(matches) > 0 {
			cls.MatchedItemID = matches[0].ItemID
			cor.WorkItemID = matches[0].ItemID
		}
	}

	if cor.Status == "" {
		cor.Status = u.correlator.ExtractStatus(ctx, run.msg.BodyText)
	}
	if cor.Comment == "" {
		cor.Comment = u.correlator.ExtractComment(run.msg.BodyText)
	}
}

// validate confirms every foreign reference the classification carries
// actually exists. A missing reference is a fatal run error naming the
// missing id; a validator lookup failure (store outage) propagates to the
// caller as a real error.
func (u *triageUsecase) validate(ctx context.Context, run *triageRun) error {
	if run.err != nil {
		return nil
	}

	if id := run.classification.Fields.TenantID(); id != "" {
		exists, err := u.validator.TenantExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			run.fail(&domain.ValidationError{Field: "tenant_id", ID: id})
			return nil
		}
	}

	if id := run.classification.Fields.ModuleID(); id != "" {
		exists, err := u.validator.ModuleExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			run.fail(&domain.ValidationError{Field: "module_id", ID: id})
			return nil
		}
	}

	if id := run.classification.MatchedItemID; id != "" {
		exists, err := u.validator.WorkItemExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			run.fail(&domain.ValidationError{Field: "work_item_id", ID: id})
			return nil
		}
	}

	return nil
}

// persist writes the single outcome row for this run. Executes even when
// an upstream error was recorded: operators must be able to see why a
// message failed, not just that it vanished.
func (u *triageUsecase) persist(ctx context.Context, run *triageRun) (*domain.TriageOutcome, error) {
	now := time.Now()

	outcome := &domain.TriageOutcome{
		ID:              uuid.New().String(),
		TenantID:        run.tenantID,
		SourceMessageID: run.sourceID,
		Category:        run.classification.Category,
		Confidence:      run.classification.Confidence,
		MatchedItemID:   run.classification.MatchedItemID,
		Status:          domain.OutcomeStatusPending,
		ProcessedAt:     now,
		ReceivedAt:      now,
	}
	outcome.SetExtractedFields(run.classification.Fields)

	// Classification may never have run (gateway/model failure); the
	// category must still never be empty.
	if outcome.Category == "" {
		outcome.Category = domain.CategoryResponse
	}

	if run.msg != nil {
		outcome.ThreadID = run.msg.ThreadID
		outcome.Sender = run.msg.From
		outcome.Subject = run.msg.Subject
		outcome.BodySnippet = truncate(run.msg.BodyText, maxBodySnippetLen)
		if !run.msg.ReceivedAt.IsZero() {
			outcome.ReceivedAt = run.msg.ReceivedAt
		}
	}

	if run.err != nil {
		outcome.Status = domain.OutcomeStatusError
		outcome.Error = truncate(run.err.Error(), maxStoredErrorLen)
	}

	err := u.outcomes.Create(ctx, outcome)
	if errors.Is(err, repository.ErrDuplicateSource) {
		// Concurrent duplicate delivery: the store serialized the two
		// creates and the other run won. Return its row.
		existing, findErr := u.outcomes.FindBySourceID(ctx, run.sourceID)
		if findErr == nil && existing != nil {
			log.Printf("[Triage] Concurrent run already stored outcome for %s", run.sourceID)
			return existing, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// label marks the source message as processed and notifies listeners.
// Both are fire-and-log: nothing here may revert a successful persist.
func (u *triageUsecase) label(ctx context.Context, run *triageRun, outcome *domain.TriageOutcome) {
	if run.msg != nil {
		if err := u.gateway.MarkProcessed(ctx, run.sourceID); err != nil {
			log.Printf("[Triage] %v", &domain.LabelingError{Err: err})
		}
	}

	if u.notifier != nil {
		u.notifier.NotifyOutcome(ctx, outcome)
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
