package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"prodboard-backend/internal/triage/domain"
	"prodboard-backend/internal/triage/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentReply struct {
	sourceID string
	threadID string
	text     string
	to       []string
}

type fakeGateway struct {
	msg     *domain.InboundMessage
	getErr  error
	markErr error
	sendErr error

	markCalls   []string
	sentReplies []sentReply
}

func (f *fakeGateway) GetMessage(ctx context.Context, sourceID string) (*domain.InboundMessage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.msg, nil
}

func (f *fakeGateway) SendReply(ctx context.Context, sourceID, threadID, text string, to, cc []string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentReplies = append(f.sentReplies, sentReply{sourceID: sourceID, threadID: threadID, text: text, to: to})
	return "sent-1", nil
}

func (f *fakeGateway) MarkProcessed(ctx context.Context, sourceID string) error {
	f.markCalls = append(f.markCalls, sourceID)
	return f.markErr
}

// fakeOutcomeRepo enforces the one-row-per-source invariant in memory the
// way the store's unique index does.
type fakeOutcomeRepo struct {
	bySource map[string]*domain.TriageOutcome
	byID     map[string]*domain.TriageOutcome

	createErr   error
	createCalls int

	// Makes the first FindBySourceID miss, simulating a concurrent run
	// that persists between the idempotency check and our Create.
	suppressFirstFind bool
}

func newFakeOutcomeRepo() *fakeOutcomeRepo {
	return &fakeOutcomeRepo{
		bySource: make(map[string]*domain.TriageOutcome),
		byID:     make(map[string]*domain.TriageOutcome),
	}
}

func (r *fakeOutcomeRepo) Create(ctx context.Context, outcome *domain.TriageOutcome) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.bySource[outcome.SourceMessageID]; exists {
		return repository.ErrDuplicateSource
	}
	r.bySource[outcome.SourceMessageID] = outcome
	r.byID[outcome.ID] = outcome
	return nil
}

func (r *fakeOutcomeRepo) FindByID(ctx context.Context, id string) (*domain.TriageOutcome, error) {
	return r.byID[id], nil
}

func (r *fakeOutcomeRepo) FindBySourceID(ctx context.Context, sourceMessageID string) (*domain.TriageOutcome, error) {
	if r.suppressFirstFind {
		r.suppressFirstFind = false
		return nil, nil
	}
	return r.bySource[sourceMessageID], nil
}

func (r *fakeOutcomeRepo) FindByTenant(ctx context.Context, tenantID string, status *domain.OutcomeStatus, limit, offset int) ([]*domain.TriageOutcome, int64, error) {
	var out []*domain.TriageOutcome
	for _, o := range r.byID {
		if o.TenantID != tenantID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOutcomeRepo) UpdateStatus(ctx context.Context, id string, status domain.OutcomeStatus) error {
	o, ok := r.byID[id]
	if !ok {
		return errors.New("not found")
	}
	o.Status = status
	return nil
}

func (r *fakeOutcomeRepo) SetMatchedItem(ctx context.Context, id, itemID string) error {
	o, ok := r.byID[id]
	if !ok {
		return errors.New("not found")
	}
	o.MatchedItemID = itemID
	return nil
}

type fakeValidator struct {
	missing map[string]bool
	err     error
}

func (f *fakeValidator) exists(id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.missing[id], nil
}

func (f *fakeValidator) TenantExists(ctx context.Context, id string) (bool, error)   { return f.exists(id) }
func (f *fakeValidator) ModuleExists(ctx context.Context, id string) (bool, error)   { return f.exists(id) }
func (f *fakeValidator) WorkItemExists(ctx context.Context, id string) (bool, error) { return f.exists(id) }

type notifiedOutcome struct {
	outcome *domain.TriageOutcome
}

type fakeNotifier struct {
	notified []notifiedOutcome
}

func (f *fakeNotifier) NotifyOutcome(ctx context.Context, outcome *domain.TriageOutcome) {
	f.notified = append(f.notified, notifiedOutcome{outcome: outcome})
}

type triageFixture struct {
	gateway  *fakeGateway
	model    *fakeModelClient
	repo     *fakeOutcomeRepo
	source   *fakeCandidateSource
	notifier *fakeNotifier
	uc       TriageUsecase
}

func newTriageFixture(modelResponse string) *triageFixture {
	f := &triageFixture{
		gateway: &fakeGateway{msg: &domain.InboundMessage{
			SourceID:   "msg-1",
			ThreadID:   "thread-1",
			From:       "alice@example.com",
			Subject:    "Login keeps timing out",
			BodyText:   "Sessions expire after two minutes, please have a look.",
			ReceivedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		}},
		model:    &fakeModelClient{response: modelResponse},
		repo:     newFakeOutcomeRepo(),
		source:   &fakeCandidateSource{},
		notifier: &fakeNotifier{},
	}
	f.uc = NewTriageUsecase(f.gateway, f.model, f.repo, &fakeValidator{}, NewCorrelator(f.source))
	f.uc.SetNotifier(f.notifier)
	return f
}

func TestProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("task email produces one pending outcome", func(t *testing.T) {
		f := newTriageFixture(`{"category": "task", "confidence": 0.85, "title": "Fix login timeout", "description": "Sessions expire too early", "priority": "high", "due_date": "2026-09-01T00:00:00Z"}`)

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.False(t, result.Skipped)

		outcome := result.Outcome
		assert.Equal(t, domain.CategoryTask, outcome.Category)
		assert.Equal(t, domain.OutcomeStatusPending, outcome.Status)
		assert.Equal(t, "tenant-1", outcome.TenantID)
		assert.Equal(t, "msg-1", outcome.SourceMessageID)
		assert.Equal(t, "thread-1", outcome.ThreadID)
		assert.Equal(t, "alice@example.com", outcome.Sender)
		assert.Equal(t, "Login keeps timing out", outcome.Subject)
		assert.InDelta(t, 0.85, outcome.Confidence, 0.001)
		assert.Equal(t, f.gateway.msg.ReceivedAt, outcome.ReceivedAt)

		fields := outcome.ExtractedFields()
		require.NotNil(t, fields.Task)
		assert.Equal(t, "Fix login timeout", fields.Task.Title)
		assert.Equal(t, "high", fields.Task.Priority)

		assert.Equal(t, []string{"msg-1"}, f.gateway.markCalls)
		require.Len(t, f.notifier.notified, 1)
		assert.Equal(t, outcome.ID, f.notifier.notified[0].outcome.ID)
	})

	t.Run("reprocessing returns the stored outcome without a second run", func(t *testing.T) {
		f := newTriageFixture(`{"category": "feature", "title": "Dark mode"}`)

		first, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		second, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)

		assert.Equal(t, first.Outcome.ID, second.Outcome.ID)
		assert.Len(t, f.model.prompts, 1)
		assert.Equal(t, 1, f.repo.createCalls)
	})

	t.Run("no_action persists nothing", func(t *testing.T) {
		f := newTriageFixture(`{"category": "no_action", "confidence": 0.99}`)

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Nil(t, result.Outcome)
		assert.Zero(t, f.repo.createCalls)
		assert.Empty(t, f.gateway.markCalls)
		assert.Empty(t, f.notifier.notified)
	})

	t.Run("gateway failure still leaves an error outcome", func(t *testing.T) {
		f := newTriageFixture(`{}`)
		f.gateway.getErr = errors.New("401 unauthorized")

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, domain.OutcomeStatusError, result.Outcome.Status)
		assert.Contains(t, result.Outcome.Error, "mail gateway get_message failed")
		// Classification never ran; the category still defaults
		assert.Equal(t, domain.CategoryResponse, result.Outcome.Category)
		assert.Empty(t, f.model.prompts)
	})

	t.Run("malformed model output is recorded on the outcome", func(t *testing.T) {
		f := newTriageFixture("I cannot produce JSON today.")

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, domain.OutcomeStatusError, result.Outcome.Status)
		assert.Contains(t, result.Outcome.Error, "malformed model response")
	})

	t.Run("missing referenced work item fails the run", func(t *testing.T) {
		f := newTriageFixture(`{"category": "correlate_existing", "work_item_id": "ghost"}`)
		f.uc = NewTriageUsecase(f.gateway, f.model, f.repo, &fakeValidator{missing: map[string]bool{"ghost": true}}, NewCorrelator(f.source))

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, domain.OutcomeStatusError, result.Outcome.Status)
		assert.Contains(t, result.Outcome.Error, `referenced work_item_id "ghost" does not exist`)
	})

	t.Run("validator outage propagates and persists nothing", func(t *testing.T) {
		f := newTriageFixture(`{"category": "correlate_existing", "work_item_id": "wi-1"}`)
		f.uc = NewTriageUsecase(f.gateway, f.model, f.repo, &fakeValidator{err: errors.New("store down")}, NewCorrelator(f.source))

		_, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.Error(t, err)
		assert.Zero(t, f.repo.createCalls)
	})

	t.Run("correlation fills the match and merged fields", func(t *testing.T) {
		f := newTriageFixture(`{"category": "correlate_existing", "confidence": 0.7}`)
		f.source.refs = []WorkItemRef{{ID: "wi-9", Title: "login timeout"}}
		f.gateway.msg.Subject = "Re: login timeout"
		f.gateway.msg.BodyText = "The login timeout fix is done, closing this out."

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, "wi-9", result.Outcome.MatchedItemID)

		correlation := result.Outcome.ExtractedFields().Correlation
		require.NotNil(t, correlation)
		assert.Equal(t, "wi-9", correlation.WorkItemID)
		assert.Equal(t, "done", correlation.Status)
		assert.Contains(t, correlation.Comment, "closing this out")
	})

	t.Run("labeling failure never fails the run", func(t *testing.T) {
		f := newTriageFixture(`{"category": "feature", "title": "Dark mode"}`)
		f.gateway.markErr = errors.New("label quota exceeded")

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, domain.OutcomeStatusPending, result.Outcome.Status)
	})

	t.Run("concurrent duplicate create returns the winning row", func(t *testing.T) {
		f := newTriageFixture(`{"category": "feature", "title": "Dark mode"}`)
		existing := &domain.TriageOutcome{ID: "other-run", TenantID: "tenant-1", SourceMessageID: "msg-1", Category: domain.CategoryFeature, Status: domain.OutcomeStatusPending}
		f.repo.bySource["msg-1"] = existing
		f.repo.byID["other-run"] = existing
		f.repo.suppressFirstFind = true

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, "other-run", result.Outcome.ID)
	})

	t.Run("unknown category defaults to response", func(t *testing.T) {
		f := newTriageFixture(`{"category": "banana", "confidence": 3.5}`)

		result, err := f.uc.ProcessMessage(ctx, "tenant-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Equal(t, domain.CategoryResponse, result.Outcome.Category)
		assert.Equal(t, 1.0, result.Outcome.Confidence) // clamped
	})
}
