package usecase

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	triagedomain "prodboard-backend/internal/triage/domain"
	triage "prodboard-backend/internal/triage/usecase"
	"prodboard-backend/internal/workitem/domain"
	"prodboard-backend/internal/workitem/repository"
	"prodboard-backend/pkg/fuzzy"

	"github.com/google/uuid"
)

// workItemUsecase implements WorkItemUsecase
type workItemUsecase struct {
	itemRepo repository.WorkItemRepository
	vectors  VectorStore
}

// NewWorkItemUsecase creates a new instance of workItemUsecase
func NewWorkItemUsecase(itemRepo repository.WorkItemRepository) WorkItemUsecase {
	return &workItemUsecase{
		itemRepo: itemRepo,
	}
}

func (u *workItemUsecase) SetVectorStore(store VectorStore) {
	u.vectors = store
}

func (u *workItemUsecase) CreateWorkItem(ctx context.Context, tenantID string, req CreateRequest) (*domain.WorkItem, error) {
	item := &domain.WorkItem{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ModuleID:    req.ModuleID,
		Kind:        parseKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Priority:    parsePriority(req.Priority),
		Status:      domain.StatusTodo,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if req.DueDate != nil && *req.DueDate != "" {
		if t, err := time.Parse(time.RFC3339, *req.DueDate); err == nil {
			item.DueDate = &t
		}
	}

	if err := u.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	u.mirrorToVectorStore(ctx, item)
	return item, nil
}

func (u *workItemUsecase) GetWorkItemByID(ctx context.Context, tenantID, itemID string) (*domain.WorkItem, error) {
	item, err := u.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("work item not found")
	}
	if item.TenantID != tenantID {
		return nil, errors.New("unauthorized")
	}
	return item, nil
}

func (u *workItemUsecase) GetTenantWorkItems(ctx context.Context, tenantID string, status *string, limit, offset int) ([]*domain.WorkItem, int64, error) {
	var statusFilter *domain.WorkItemStatus
	if status != nil && *status != "" {
		s := domain.WorkItemStatus(*status)
		statusFilter = &s
	}
	return u.itemRepo.FindByTenant(ctx, tenantID, statusFilter, limit, offset)
}

func (u *workItemUsecase) UpdateWorkItem(ctx context.Context, tenantID, itemID string, updates UpdateRequest) (*domain.WorkItem, error) {
	item, err := u.GetWorkItemByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		item.Title = *updates.Title
	}
	if updates.Description != nil {
		item.Description = *updates.Description
	}
	if updates.Priority != nil {
		item.Priority = parsePriority(*updates.Priority)
	}
	if updates.Status != nil {
		status, ok := parseStatus(*updates.Status)
		if !ok {
			return nil, errors.New("invalid status")
		}
		item.Status = status
	}
	if updates.DueDate != nil {
		if *updates.DueDate == "" {
			item.DueDate = nil
		} else if t, err := time.Parse(time.RFC3339, *updates.DueDate); err == nil {
			item.DueDate = &t
		}
	}

	item.UpdatedAt = time.Now()
	if err := u.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	u.mirrorToVectorStore(ctx, item)
	return item, nil
}

func (u *workItemUsecase) DeleteWorkItem(ctx context.Context, tenantID, itemID string) error {
	item, err := u.GetWorkItemByID(ctx, tenantID, itemID)
	if err != nil {
		return err
	}
	if err := u.itemRepo.Delete(ctx, item.ID); err != nil {
		return err
	}
	if u.vectors != nil {
		if err := u.vectors.DeleteWorkItem(ctx, item.ID); err != nil {
			log.Printf("[WorkItemUsecase] Failed to remove embedding for %s: %v", item.ID, err)
		}
	}
	return nil
}

// scoredItem pairs an item with its fuzzy relevance score for sorting
type scoredItem struct {
	item  *domain.WorkItem
	score float64
}

// SearchWorkItems ranks the tenant's items against the query using fuzzy
// title/description matching. Items that do not match at all are dropped.
func (u *workItemUsecase) SearchWorkItems(ctx context.Context, tenantID, query string, limit int) ([]*domain.WorkItem, error) {
	items, err := u.itemRepo.FindByScope(ctx, tenantID, "")
	if err != nil {
		return nil, err
	}

	var scored []scoredItem
	for _, item := range items {
		if !fuzzy.FuzzyMatchItem(query, item.Title, item.Description) {
			continue
		}
		score := fuzzy.CalculateRelevanceScore(query, item.Title, item.Description)
		scored = append(scored, scoredItem{item: item, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]*domain.WorkItem, 0, len(scored))
	for _, s := range scored {
		results = append(results, s.item)
	}
	return results, nil
}

func (u *workItemUsecase) GetComments(ctx context.Context, tenantID, itemID string) ([]*domain.Comment, error) {
	item, err := u.GetWorkItemByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	return u.itemRepo.FindComments(ctx, item.ID)
}

// ListByScope adapts stored items into the lightweight refs the email
// correlator scores against.
func (u *workItemUsecase) ListByScope(ctx context.Context, tenantID, moduleID string) ([]triage.WorkItemRef, error) {
	items, err := u.itemRepo.FindByScope(ctx, tenantID, moduleID)
	if err != nil {
		return nil, err
	}
	refs := make([]triage.WorkItemRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, triage.WorkItemRef{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
		})
	}
	return refs, nil
}

func (u *workItemUsecase) WorkItemExists(ctx context.Context, id string) (bool, error) {
	item, err := u.itemRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// CreateFromTriage materializes an approved outcome as a work item. The
// extracted field variant matching the category supplies title, details
// and priority; anything missing falls back to sane defaults.
func (u *workItemUsecase) CreateFromTriage(ctx context.Context, tenantID, outcomeID string, category triagedomain.Category, fields triagedomain.ExtractedFields) (string, error) {
	item := &domain.WorkItem{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Status:          domain.StatusTodo,
		SourceOutcomeID: outcomeID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	switch category {
	case triagedomain.CategoryFeature:
		item.Kind = domain.KindFeature
		if f := fields.Feature; f != nil {
			item.Title = f.Title
			item.Description = f.Description
			item.ModuleID = f.ModuleID
			item.Priority = parsePriority(f.Priority)
		}
	case triagedomain.CategoryTask:
		item.Kind = domain.KindTask
		if t := fields.Task; t != nil {
			item.Title = t.Title
			item.Description = t.Description
			item.ModuleID = t.ModuleID
			item.Priority = parsePriority(t.Priority)
			if t.DueDate != "" {
				if due, err := time.Parse(time.RFC3339, t.DueDate); err == nil {
					item.DueDate = &due
				}
			}
		}
	default:
		return "", errors.New("category does not produce a work item")
	}

	if item.Title == "" {
		item.Title = "Untitled " + string(item.Kind)
	}
	if item.Priority == "" {
		item.Priority = domain.PriorityMedium
	}

	if err := u.itemRepo.Create(ctx, item); err != nil {
		return "", err
	}

	u.mirrorToVectorStore(ctx, item)
	return item.ID, nil
}

// ApplyCorrelation applies a status change and/or appends a comment taken
// from a correlated email. An unknown status is ignored rather than
// rejected so a noisy model cannot block the comment.
func (u *workItemUsecase) ApplyCorrelation(ctx context.Context, workItemID, status, comment string) error {
	item, err := u.itemRepo.FindByID(ctx, workItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return errors.New("work item not found")
	}

	if status != "" {
		if parsed, ok := parseStatus(status); ok {
			item.Status = parsed
			item.UpdatedAt = time.Now()
			if err := u.itemRepo.Update(ctx, item); err != nil {
				return err
			}
		} else {
			log.Printf("[WorkItemUsecase] Ignoring unknown correlated status %q for item %s", status, workItemID)
		}
	}

	if comment != "" {
		c := &domain.Comment{
			ID:         uuid.New().String(),
			WorkItemID: item.ID,
			Body:       comment,
			CreatedAt:  time.Now(),
		}
		if err := u.itemRepo.AddComment(ctx, c); err != nil {
			return err
		}
	}

	return nil
}

// mirrorToVectorStore is best-effort: the relational row is the source of
// truth and a missing embedding only degrades correlation narrowing.
func (u *workItemUsecase) mirrorToVectorStore(ctx context.Context, item *domain.WorkItem) {
	if u.vectors == nil {
		return
	}
	if err := u.vectors.UpsertWorkItem(ctx, item.TenantID, item.ID, item.Title, item.Description); err != nil {
		log.Printf("[WorkItemUsecase] Failed to upsert embedding for %s: %v", item.ID, err)
	}
}

func parsePriority(p string) domain.Priority {
	switch p {
	case "high":
		return domain.PriorityHigh
	case "low":
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

func parseKind(k string) domain.WorkItemKind {
	if k == string(domain.KindFeature) {
		return domain.KindFeature
	}
	return domain.KindTask
}

func parseStatus(s string) (domain.WorkItemStatus, bool) {
	switch domain.WorkItemStatus(s) {
	case domain.StatusTodo, domain.StatusInProgress, domain.StatusBlocked, domain.StatusDone:
		return domain.WorkItemStatus(s), true
	}
	return "", false
}
