package main

import (
	"context"
	"log"
	"strings"

	api "prodboard-backend/cmd/api"
	"prodboard-backend/internal/notification"
	tenantRepo "prodboard-backend/internal/tenant/repository"
	tenantUsecase "prodboard-backend/internal/tenant/usecase"
	triagedomain "prodboard-backend/internal/triage/domain"
	triageRepo "prodboard-backend/internal/triage/repository"
	triageUsecase "prodboard-backend/internal/triage/usecase"
	workitemRepo "prodboard-backend/internal/workitem/repository"
	workitemUsecase "prodboard-backend/internal/workitem/usecase"
	"prodboard-backend/pkg/ai"
	"prodboard-backend/pkg/chroma"
	"prodboard-backend/pkg/config"
	"prodboard-backend/pkg/database"
	"prodboard-backend/pkg/fcm"
	"prodboard-backend/pkg/gmail"
	"prodboard-backend/pkg/imap"
)

// mailGateway is the full surface main wires: the triage gateway plus
// the unprocessed-message listing the notification service polls.
type mailGateway interface {
	triagedomain.MailGateway
	ListUnprocessed(ctx context.Context, limit int64) ([]string, error)
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize repositories (dependency injection)
	outcomeRepository := triageRepo.NewGormOutcomeRepository(db)
	workItemRepository := workitemRepo.NewGormWorkItemRepository(db)
	tenantRepository := tenantRepo.NewTenantRepository(db)
	tokenRepository := notification.NewGormTokenRepository(db)

	// Initialize the model client with runtime-configurable Ollama settings
	runtimeCfg := api.NewRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)
	modelClient, err := ai.NewModelClientWithDynamicConfig(ai.DynamicConfig{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		GetOllamaBaseURL: runtimeCfg.OllamaBaseURL,
		GetOllamaModel:   runtimeCfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize model client:", err)
	}
	log.Printf("Model client initialized with provider: %s", cfg.AIProvider)

	// Initialize the mail gateway for the triage mailbox
	var gateway mailGateway
	switch cfg.MailProvider {
	case "imap":
		gateway = imap.NewGateway(imap.Config{
			Email:    cfg.IMAPEmail,
			Password: cfg.IMAPPassword,
			Server:   cfg.IMAPServer,
		})
		log.Printf("Mail gateway: IMAP (%s)", cfg.IMAPServer)
	default:
		gateway = gmail.NewGateway(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.GmailAccessToken, cfg.GmailRefreshToken, cfg.ProcessedLabelID, nil)
		log.Printf("Mail gateway: Gmail")
	}

	// Initialize use cases (dependency injection)
	tenantUc := tenantUsecase.NewTenantUsecase(tenantRepository, cfg)
	workItemUc := workitemUsecase.NewWorkItemUsecase(workItemRepository)

	correlator := triageUsecase.NewCorrelator(workItemUc)
	correlator.SetModelClient(modelClient)

	// Chroma vector store (optional, narrows correlation on large tenants)
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma client (semantic narrowing disabled): %v", err)
		} else {
			workItemUc.SetVectorStore(chromaClient)
			correlator.SetVectorSearcher(chromaClient)
		}
	}

	validator := triageUsecase.NewReferenceValidator(tenantUc, workItemUc)
	triageUc := triageUsecase.NewTriageUsecase(gateway, modelClient, outcomeRepository, validator, correlator)
	triageUc.SetWorkItemWriter(workItemUc)

	// Initialize Notification Service (Pub/Sub + FCM)
	var notifService *notification.Service
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		var fcmClient *fcm.Client
		if cfg.FirebaseCredentials != "" {
			fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
			if err != nil {
				log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			}
		}

		notifService, err = notification.NewService(cfg.GoogleProjectID, topicName,
			cfg.TriageTenantID, tokenRepository, fcmClient, gateway, triageUc, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
			notifService = nil
		} else {
			go notifService.Start(context.Background())
			triageUc.SetNotifier(notifService)

			// Reminder and watch renewal scheduler
			scheduler := notification.NewScheduler(workItemRepository, tokenRepository, fcmClient)

			// Start the Gmail watch so the mailbox publishes to our topic
			if gmailGw, ok := gateway.(*gmail.Gateway); ok {
				topic := "projects/" + cfg.GoogleProjectID + "/topics/" + topicName
				if err := gmailGw.Watch(context.Background(), topic); err != nil {
					log.Printf("[WARN] Failed to start mailbox watch: %v", err)
				}
				scheduler.SetWatchRenewal(gmailGw, topic)
			}

			scheduler.Start()
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, notification service disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(tenantUc, workItemUc, triageUc, notifService, runtimeCfg, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
