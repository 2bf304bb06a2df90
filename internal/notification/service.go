package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	triagedomain "prodboard-backend/internal/triage/domain"
	triage "prodboard-backend/internal/triage/usecase"
	"prodboard-backend/pkg/fcm"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the watch topic
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// MessageLister lists source ids of messages that have not been triaged
// yet. Implemented by the mail gateways.
type MessageLister interface {
	ListUnprocessed(ctx context.Context, limit int64) ([]string, error)
}

// Service bridges mailbox push notifications to the triage workflow and
// pushes FCM notifications when outcomes are created. It implements the
// triage Notifier port.
type Service struct {
	pubsubClient  *pubsub.Client
	tokenRepo     TokenRepository
	fcmClient     *fcm.Client
	lister        MessageLister
	triageUsecase triage.TriageUsecase

	// tenant the watched mailbox belongs to
	tenantID string

	topicName string
	subName   string

	// Deduplication: track last historyId per mailbox to avoid
	// re-triggering on duplicate deliveries
	lastHistoryID map[string]uint64
}

// NewService creates the notification service and its Pub/Sub client.
func NewService(projectID, topicName, tenantID string, tokenRepo TokenRepository, fcmClient *fcm.Client, lister MessageLister, triageUsecase triage.TriageUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		tokenRepo:     tokenRepo,
		fcmClient:     fcmClient,
		lister:        lister,
		triageUsecase: triageUsecase,
		tenantID:      tenantID,
		topicName:     topicName,
		subName:       topicName + "-sub", // Convention: topic-sub
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// Start subscribes to the mailbox watch topic and blocks until the
// context is cancelled. Run it in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

// handleMessage runs triage over whatever the mailbox reports as
// unprocessed. Triage itself is idempotent per source id, so duplicate
// or overlapping notifications are harmless.
func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Notification for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	lastHID, seen := s.lastHistoryID[notification.EmailAddress]
	if seen && notification.HistoryID <= lastHID {
		log.Printf("[PubSub] Skipping duplicate notification (historyId %d <= last %d)", notification.HistoryID, lastHID)
		return
	}
	s.lastHistoryID[notification.EmailAddress] = notification.HistoryID

	sourceIDs, err := s.lister.ListUnprocessed(ctx, 20)
	if err != nil {
		log.Printf("[PubSub] Failed to list unprocessed messages: %v", err)
		return
	}

	for _, sourceID := range sourceIDs {
		result, err := s.triageUsecase.ProcessMessage(ctx, s.tenantID, sourceID)
		if err != nil {
			log.Printf("[PubSub] Triage failed for message %s: %v", sourceID, err)
			continue
		}
		if result.Skipped {
			log.Printf("[PubSub] Message %s required no action", sourceID)
		}
	}
}

// NotifyOutcome pushes a best-effort FCM notification about a freshly
// stored outcome to the tenant's registered devices.
func (s *Service) NotifyOutcome(ctx context.Context, outcome *triagedomain.TriageOutcome) {
	if s.fcmClient == nil || s.tokenRepo == nil || outcome == nil {
		return
	}

	go func() {
		ctx := context.Background()

		tokens, err := s.tokenRepo.FindByTenant(ctx, outcome.TenantID)
		if err != nil {
			log.Printf("[FCM] Error getting tokens for tenant %s: %v", outcome.TenantID, err)
			return
		}
		if len(tokens) == 0 {
			return
		}

		tokenStrings := make([]string, 0, len(tokens))
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}

		title := fmt.Sprintf("Email triaged: %s", outcome.Category)
		if outcome.Status == triagedomain.OutcomeStatusError {
			title = "Email triage failed"
		}
		body := outcome.Subject
		if len(body) > 100 {
			body = body[:97] + "..."
		}
		if body == "" {
			body = "(no subject)"
		}

		failedTokens, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":         "triage_outcome",
				"outcome_id":   outcome.ID,
				"category":     string(outcome.Category),
				"status":       string(outcome.Status),
				"click_action": "/outcomes/" + outcome.ID,
			},
		})
		if err != nil {
			log.Printf("[FCM] Error sending notifications: %v", err)
			return
		}

		// Cleanup tokens FCM rejected
		for _, token := range failedTokens {
			if err := s.tokenRepo.Delete(ctx, token); err != nil {
				log.Printf("[FCM] Failed to delete stale token: %v", err)
			}
		}
	}()
}

// RegisterDevice stores an FCM registration token for a tenant
func (s *Service) RegisterDevice(ctx context.Context, tenantID, token string) error {
	return s.tokenRepo.Save(ctx, &DeviceToken{Token: token, TenantID: tenantID})
}
