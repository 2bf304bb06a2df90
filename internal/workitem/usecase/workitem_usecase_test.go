package usecase

import (
	"context"
	"testing"
	"time"

	triagedomain "prodboard-backend/internal/triage/domain"
	"prodboard-backend/internal/workitem/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemRepo struct {
	items    map[string]*domain.WorkItem
	comments map[string][]*domain.Comment

	createErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		items:    make(map[string]*domain.WorkItem),
		comments: make(map[string][]*domain.Comment),
	}
}

func (r *fakeItemRepo) Create(ctx context.Context, item *domain.WorkItem) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeItemRepo) FindByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return r.items[id], nil
}

func (r *fakeItemRepo) FindByScope(ctx context.Context, tenantID, moduleID string) ([]*domain.WorkItem, error) {
	var out []*domain.WorkItem
	for _, item := range r.items {
		if item.TenantID != tenantID {
			continue
		}
		if moduleID != "" && item.ModuleID != moduleID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeItemRepo) FindByTenant(ctx context.Context, tenantID string, status *domain.WorkItemStatus, limit, offset int) ([]*domain.WorkItem, int64, error) {
	var out []*domain.WorkItem
	for _, item := range r.items {
		if item.TenantID != tenantID {
			continue
		}
		if status != nil && item.Status != *status {
			continue
		}
		out = append(out, item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *domain.WorkItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, id string) error {
	delete(r.items, id)
	delete(r.comments, id)
	return nil
}

func (r *fakeItemRepo) AddComment(ctx context.Context, comment *domain.Comment) error {
	r.comments[comment.WorkItemID] = append(r.comments[comment.WorkItemID], comment)
	return nil
}

func (r *fakeItemRepo) FindComments(ctx context.Context, workItemID string) ([]*domain.Comment, error) {
	return r.comments[workItemID], nil
}

func (r *fakeItemRepo) FindDueReminders(ctx context.Context, before time.Time) ([]*domain.WorkItem, error) {
	var out []*domain.WorkItem
	for _, item := range r.items {
		if item.DueDate != nil && !item.DueDate.After(before) && !item.ReminderSent && item.Status != domain.StatusDone {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) MarkReminderSent(ctx context.Context, id string) error {
	if item, ok := r.items[id]; ok {
		item.ReminderSent = true
	}
	return nil
}

func TestCreateAndUpdateWorkItem(t *testing.T) {
	ctx := context.Background()

	t.Run("create applies defaults and parses the due date", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)

		due := "2026-09-15T12:00:00Z"
		item, err := uc.CreateWorkItem(ctx, "tenant-1", CreateRequest{
			Title:   "Rotate certificates",
			Kind:    "feature",
			DueDate: &due,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.KindFeature, item.Kind)
		assert.Equal(t, domain.PriorityMedium, item.Priority)
		assert.Equal(t, domain.StatusTodo, item.Status)
		require.NotNil(t, item.DueDate)
		assert.Equal(t, 2026, item.DueDate.Year())
	})

	t.Run("unknown kind defaults to task", func(t *testing.T) {
		uc := NewWorkItemUsecase(newFakeItemRepo())
		item, err := uc.CreateWorkItem(ctx, "tenant-1", CreateRequest{Title: "x", Kind: "epic"})
		require.NoError(t, err)
		assert.Equal(t, domain.KindTask, item.Kind)
	})

	t.Run("update rejects an invalid status", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)
		item, err := uc.CreateWorkItem(ctx, "tenant-1", CreateRequest{Title: "x"})
		require.NoError(t, err)

		bad := "cancelled"
		_, err = uc.UpdateWorkItem(ctx, "tenant-1", item.ID, UpdateRequest{Status: &bad})
		assert.Error(t, err)

		good := "in_progress"
		updated, err := uc.UpdateWorkItem(ctx, "tenant-1", item.ID, UpdateRequest{Status: &good})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, updated.Status)
	})

	t.Run("update clears the due date with an empty string", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)
		due := "2026-09-15T12:00:00Z"
		item, err := uc.CreateWorkItem(ctx, "tenant-1", CreateRequest{Title: "x", DueDate: &due})
		require.NoError(t, err)
		require.NotNil(t, item.DueDate)

		clear := ""
		updated, err := uc.UpdateWorkItem(ctx, "tenant-1", item.ID, UpdateRequest{DueDate: &clear})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
	})

	t.Run("foreign tenant cannot read or update", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)
		item, err := uc.CreateWorkItem(ctx, "tenant-1", CreateRequest{Title: "x"})
		require.NoError(t, err)

		_, err = uc.GetWorkItemByID(ctx, "tenant-2", item.ID)
		assert.EqualError(t, err, "unauthorized")

		title := "hijacked"
		_, err = uc.UpdateWorkItem(ctx, "tenant-2", item.ID, UpdateRequest{Title: &title})
		assert.Error(t, err)
	})
}

func TestCreateFromTriage(t *testing.T) {
	ctx := context.Background()

	t.Run("feature fields map onto the item", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)

		id, err := uc.CreateFromTriage(ctx, "tenant-1", "o-1", triagedomain.CategoryFeature, triagedomain.ExtractedFields{
			Feature: &triagedomain.FeatureFields{
				Title:       "Dark mode",
				Description: "Dashboard theme switcher",
				Priority:    "high",
				ModuleID:    "m-1",
			},
		})
		require.NoError(t, err)

		item := repo.items[id]
		require.NotNil(t, item)
		assert.Equal(t, domain.KindFeature, item.Kind)
		assert.Equal(t, "Dark mode", item.Title)
		assert.Equal(t, domain.PriorityHigh, item.Priority)
		assert.Equal(t, "m-1", item.ModuleID)
		assert.Equal(t, domain.StatusTodo, item.Status)
		assert.Equal(t, "o-1", item.SourceOutcomeID)
	})

	t.Run("task due date is parsed when valid", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)

		id, err := uc.CreateFromTriage(ctx, "tenant-1", "o-1", triagedomain.CategoryTask, triagedomain.ExtractedFields{
			Task: &triagedomain.TaskFields{Title: "Rotate certs", DueDate: "2026-10-01T00:00:00Z"},
		})
		require.NoError(t, err)
		require.NotNil(t, repo.items[id].DueDate)

		// A garbled date is dropped, not fatal
		id2, err := uc.CreateFromTriage(ctx, "tenant-1", "o-1", triagedomain.CategoryTask, triagedomain.ExtractedFields{
			Task: &triagedomain.TaskFields{Title: "Rotate certs", DueDate: "next tuesday"},
		})
		require.NoError(t, err)
		assert.Nil(t, repo.items[id2].DueDate)
	})

	t.Run("missing extractions fall back to defaults", func(t *testing.T) {
		repo := newFakeItemRepo()
		uc := NewWorkItemUsecase(repo)

		id, err := uc.CreateFromTriage(ctx, "tenant-1", "o-1", triagedomain.CategoryTask, triagedomain.ExtractedFields{})
		require.NoError(t, err)

		item := repo.items[id]
		assert.Equal(t, "Untitled task", item.Title)
		assert.Equal(t, domain.PriorityMedium, item.Priority)
	})

	t.Run("non-item categories are rejected", func(t *testing.T) {
		uc := NewWorkItemUsecase(newFakeItemRepo())
		_, err := uc.CreateFromTriage(ctx, "tenant-1", "o-1", triagedomain.CategoryResponse, triagedomain.ExtractedFields{})
		assert.Error(t, err)
	})
}

func TestApplyCorrelation(t *testing.T) {
	ctx := context.Background()

	seed := func(repo *fakeItemRepo) *domain.WorkItem {
		item := &domain.WorkItem{ID: "wi-1", TenantID: "tenant-1", Title: "Login fix", Status: domain.StatusInProgress}
		repo.items[item.ID] = item
		return item
	}

	t.Run("valid status and comment are applied", func(t *testing.T) {
		repo := newFakeItemRepo()
		item := seed(repo)
		uc := NewWorkItemUsecase(repo)

		err := uc.ApplyCorrelation(ctx, item.ID, "done", "verified on staging")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDone, item.Status)
		require.Len(t, repo.comments[item.ID], 1)
		assert.Equal(t, "verified on staging", repo.comments[item.ID][0].Body)
	})

	t.Run("unknown status is ignored but the comment still lands", func(t *testing.T) {
		repo := newFakeItemRepo()
		item := seed(repo)
		uc := NewWorkItemUsecase(repo)

		err := uc.ApplyCorrelation(ctx, item.ID, "maybe-done", "some remark")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, item.Status)
		assert.Len(t, repo.comments[item.ID], 1)
	})

	t.Run("missing work item", func(t *testing.T) {
		uc := NewWorkItemUsecase(newFakeItemRepo())
		err := uc.ApplyCorrelation(ctx, "nope", "done", "remark")
		assert.EqualError(t, err, "work item not found")
	})

	t.Run("empty status and comment are a no-op", func(t *testing.T) {
		repo := newFakeItemRepo()
		item := seed(repo)
		uc := NewWorkItemUsecase(repo)

		require.NoError(t, uc.ApplyCorrelation(ctx, item.ID, "", ""))
		assert.Equal(t, domain.StatusInProgress, item.Status)
		assert.Empty(t, repo.comments[item.ID])
	})
}

func TestSearchWorkItems(t *testing.T) {
	ctx := context.Background()

	repo := newFakeItemRepo()
	repo.items["wi-1"] = &domain.WorkItem{ID: "wi-1", TenantID: "tenant-1", Title: "Payment gateway timeout", Description: "Stripe calls fail"}
	repo.items["wi-2"] = &domain.WorkItem{ID: "wi-2", TenantID: "tenant-1", Title: "Onboarding flow", Description: "mentions payment in passing"}
	repo.items["wi-3"] = &domain.WorkItem{ID: "wi-3", TenantID: "tenant-1", Title: "Unrelated chore", Description: "nothing relevant"}
	repo.items["wi-4"] = &domain.WorkItem{ID: "wi-4", TenantID: "tenant-2", Title: "Payment refunds", Description: ""}
	uc := NewWorkItemUsecase(repo)

	t.Run("title match outranks description match", func(t *testing.T) {
		results, err := uc.SearchWorkItems(ctx, "tenant-1", "payment", 10)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(results), 2)
		assert.Equal(t, "wi-1", results[0].ID)
	})

	t.Run("other tenants' items never appear", func(t *testing.T) {
		results, err := uc.SearchWorkItems(ctx, "tenant-1", "payment", 10)
		require.NoError(t, err)
		for _, item := range results {
			assert.NotEqual(t, "wi-4", item.ID)
		}
	})

	t.Run("limit caps the result set", func(t *testing.T) {
		results, err := uc.SearchWorkItems(ctx, "tenant-1", "payment", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestTriagePortAdapters(t *testing.T) {
	ctx := context.Background()

	repo := newFakeItemRepo()
	repo.items["wi-1"] = &domain.WorkItem{ID: "wi-1", TenantID: "tenant-1", ModuleID: "m-1", Title: "Alpha", Description: "first"}
	repo.items["wi-2"] = &domain.WorkItem{ID: "wi-2", TenantID: "tenant-1", ModuleID: "m-2", Title: "Beta"}
	uc := NewWorkItemUsecase(repo)

	t.Run("ListByScope narrows by module", func(t *testing.T) {
		refs, err := uc.ListByScope(ctx, "tenant-1", "m-1")
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "wi-1", refs[0].ID)
		assert.Equal(t, "Alpha", refs[0].Title)
	})

	t.Run("WorkItemExists", func(t *testing.T) {
		exists, err := uc.WorkItemExists(ctx, "wi-2")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = uc.WorkItemExists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestDeleteWorkItem(t *testing.T) {
	ctx := context.Background()
	repo := newFakeItemRepo()
	repo.items["wi-1"] = &domain.WorkItem{ID: "wi-1", TenantID: "tenant-1", Title: "x"}
	uc := NewWorkItemUsecase(repo)

	require.Error(t, uc.DeleteWorkItem(ctx, "tenant-2", "wi-1"))
	require.NoError(t, uc.DeleteWorkItem(ctx, "tenant-1", "wi-1"))
	assert.NotContains(t, repo.items, "wi-1")

	// Deleting again fails the not-found lookup
	assert.Error(t, uc.DeleteWorkItem(ctx, "tenant-1", "wi-1"))
}
