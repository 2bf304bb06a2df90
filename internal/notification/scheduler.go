package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	workitemRepo "prodboard-backend/internal/workitem/repository"
	"prodboard-backend/pkg/fcm"
)

// WatchRenewer restarts the mailbox push watch. Gmail watches expire
// after seven days, so the scheduler renews daily.
type WatchRenewer interface {
	Watch(ctx context.Context, topicName string) error
}

// Scheduler runs periodic maintenance: due-date reminders for work
// items and mailbox watch renewal.
type Scheduler struct {
	itemRepo  workitemRepo.WorkItemRepository
	tokenRepo TokenRepository
	fcmClient *fcm.Client

	watcher   WatchRenewer
	watchName string

	reminderInterval time.Duration
	watchInterval    time.Duration
	stopChan         chan struct{}
}

// NewScheduler creates a new maintenance scheduler
func NewScheduler(itemRepo workitemRepo.WorkItemRepository, tokenRepo TokenRepository, fcmClient *fcm.Client) *Scheduler {
	return &Scheduler{
		itemRepo:         itemRepo,
		tokenRepo:        tokenRepo,
		fcmClient:        fcmClient,
		reminderInterval: 1 * time.Minute,
		watchInterval:    24 * time.Hour,
		stopChan:         make(chan struct{}),
	}
}

// SetWatchRenewal enables periodic mailbox watch renewal
func (s *Scheduler) SetWatchRenewal(watcher WatchRenewer, topicName string) {
	s.watcher = watcher
	s.watchName = topicName
}

// Start begins the scheduler loops
func (s *Scheduler) Start() {
	if s.fcmClient != nil {
		log.Println("[Scheduler] Starting due-date reminder loop (interval: 1 minute)")
		go s.runReminders()
	} else {
		log.Println("[Scheduler] FCM client not available, reminders disabled")
	}

	if s.watcher != nil {
		log.Println("[Scheduler] Starting watch renewal loop (interval: 24h)")
		go s.runWatchRenewal()
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) runReminders() {
	s.checkAndSendReminders()

	ticker := time.NewTicker(s.reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkAndSendReminders()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runWatchRenewal() {
	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.watcher.Watch(context.Background(), s.watchName); err != nil {
				log.Printf("[Scheduler] Watch renewal failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// checkAndSendReminders pushes a notification for every open work item
// whose due date has arrived, then marks it reminded so a noisy FCM
// outage cannot cause repeats.
func (s *Scheduler) checkAndSendReminders() {
	ctx := context.Background()

	items, err := s.itemRepo.FindDueReminders(ctx, time.Now())
	if err != nil {
		log.Printf("[Scheduler] Error finding due items: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	log.Printf("[Scheduler] Found %d work items due", len(items))

	for _, item := range items {
		tokens, err := s.tokenRepo.FindByTenant(ctx, item.TenantID)
		if err != nil {
			log.Printf("[Scheduler] Error getting tokens for tenant %s: %v", item.TenantID, err)
			continue
		}

		if len(tokens) == 0 {
			s.itemRepo.MarkReminderSent(ctx, item.ID)
			continue
		}

		body := item.Description
		if body == "" {
			body = "A work item has reached its due date"
		}
		if item.DueDate != nil {
			body = fmt.Sprintf("%s\nDue: %s", body, item.DueDate.Format("02 Jan 2006 15:04"))
		}

		tokenStrings := make([]string, 0, len(tokens))
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}

		failedTokens, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
			Title: "Due: " + item.Title,
			Body:  body,
			Data: map[string]string{
				"type":         "work_item_due",
				"work_item_id": item.ID,
				"priority":     string(item.Priority),
				"click_action": "/work-items/" + item.ID,
			},
		})
		if err != nil {
			log.Printf("[Scheduler] Error sending reminder for item %s: %v", item.ID, err)
		}

		for _, token := range failedTokens {
			s.tokenRepo.Delete(ctx, token)
		}

		// Mark regardless of delivery result to avoid spamming
		if err := s.itemRepo.MarkReminderSent(ctx, item.ID); err != nil {
			log.Printf("[Scheduler] Error marking reminder sent for item %s: %v", item.ID, err)
		}
	}
}
