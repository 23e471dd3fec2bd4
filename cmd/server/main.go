package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorepoints/internal/config"
	"chorepoints/internal/docstore"
	"chorepoints/internal/handlers"
	"chorepoints/internal/objectstore"
	"chorepoints/internal/repository"
	"chorepoints/internal/security"
	"chorepoints/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg := config.Load()

	// Open the document store (supports sqlite, postgres, mysql)
	store, err := docstore.OpenWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()

	log.Printf("Document store ready (type: %s)", cfg.DatabaseType)

	// Object storage for uploaded images
	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Email notifications (disabled cleanly when unconfigured)
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.EmailFromAddress, cfg.EmailFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(store)
	familyRepo := repository.NewFamilyRepository(store)
	taskRepo := repository.NewTaskRepository(store)
	rewardRepo := repository.NewRewardRepository(store)
	claimRepo := repository.NewClaimRepository(store)

	// Initialize services
	familyService := service.NewFamilyService(store, userRepo, familyRepo, taskRepo, rewardRepo, emailService)
	taskService := service.NewTaskService(store, taskRepo, rewardRepo, userRepo)
	rewardService := service.NewRewardService(store, rewardRepo)
	claimService := service.NewClaimService(store, claimRepo, rewardRepo, userRepo, familyRepo, emailService)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimit, time.Minute)
	middleware := handlers.NewMiddleware(limiter)
	familyHandler := handlers.NewFamilyHandler(familyService)
	taskHandler := handlers.NewTaskHandler(taskService, objects, cfg.UploadMaxSize)
	rewardHandler := handlers.NewRewardHandler(rewardService, objects, cfg.UploadMaxSize)
	claimHandler := handlers.NewClaimHandler(claimService)
	streamHandler := handlers.NewStreamHandler(store)

	// Setup routes
	mux := http.NewServeMux()

	// Accounts and membership
	mux.HandleFunc("POST /parents", middleware.RateLimit(familyHandler.CreateParent))
	mux.HandleFunc("POST /families", middleware.RateLimit(familyHandler.CreateFamily))
	mux.HandleFunc("GET /families/{id}", familyHandler.GetFamily)
	mux.HandleFunc("GET /families/{id}/children", familyHandler.ListChildren)
	mux.HandleFunc("GET /families/{id}/parents", familyHandler.ListParents)
	mux.HandleFunc("POST /families/{id}/children", middleware.RateLimit(familyHandler.AddChild))
	mux.HandleFunc("POST /families/{id}/parents", middleware.RateLimit(familyHandler.AddCoParent))
	mux.HandleFunc("DELETE /families/{id}/children/{childID}", middleware.RateLimit(familyHandler.RemoveChild))
	mux.HandleFunc("GET /children/{id}", familyHandler.GetChild)

	// Tasks
	mux.HandleFunc("POST /tasks", middleware.RateLimit(taskHandler.CreateTask))
	mux.HandleFunc("GET /tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PUT /tasks/{id}", middleware.RateLimit(taskHandler.UpdateTask))
	mux.HandleFunc("DELETE /tasks/{id}", middleware.RateLimit(taskHandler.DeleteTask))
	mux.HandleFunc("POST /tasks/{id}/submit", middleware.RateLimit(taskHandler.SubmitTask))
	mux.HandleFunc("POST /tasks/{id}/approve", middleware.RateLimit(taskHandler.ApproveTask))
	mux.HandleFunc("POST /tasks/{id}/decline", middleware.RateLimit(taskHandler.DeclineTask))
	mux.HandleFunc("POST /tasks/{id}/reset", middleware.RateLimit(taskHandler.ResetTask))
	mux.HandleFunc("POST /tasks/{id}/proof", middleware.RateLimit(taskHandler.UploadProof))
	mux.HandleFunc("GET /families/{id}/tasks", taskHandler.ListFamilyTasks)
	mux.HandleFunc("GET /children/{id}/tasks", taskHandler.ListChildTasks)

	// Rewards
	mux.HandleFunc("POST /rewards", middleware.RateLimit(rewardHandler.CreateReward))
	mux.HandleFunc("GET /rewards/{id}", rewardHandler.GetReward)
	mux.HandleFunc("PUT /rewards/{id}", middleware.RateLimit(rewardHandler.UpdateReward))
	mux.HandleFunc("DELETE /rewards/{id}", middleware.RateLimit(rewardHandler.DeleteReward))
	mux.HandleFunc("POST /rewards/{id}/assign/{childID}", middleware.RateLimit(rewardHandler.AssignReward))
	mux.HandleFunc("POST /rewards/{id}/unassign/{childID}", middleware.RateLimit(rewardHandler.UnassignReward))
	mux.HandleFunc("POST /rewards/{id}/image", middleware.RateLimit(rewardHandler.UploadImage))
	mux.HandleFunc("GET /families/{id}/rewards", rewardHandler.ListFamilyRewards)
	mux.HandleFunc("GET /children/{id}/rewards", rewardHandler.ListChildRewards)
	mux.HandleFunc("GET /children/{id}/rewards/unclaimed", claimHandler.ListUnclaimedRewards)

	// Claims
	mux.HandleFunc("POST /claims", middleware.RateLimit(claimHandler.CreateClaim))
	mux.HandleFunc("GET /claims/{id}", claimHandler.GetClaim)
	mux.HandleFunc("POST /claims/{id}/remind", middleware.RateLimit(claimHandler.RemindClaim))
	mux.HandleFunc("POST /claims/{id}/promise", middleware.RateLimit(claimHandler.PromiseClaim))
	mux.HandleFunc("POST /claims/{id}/grant", middleware.RateLimit(claimHandler.GrantClaim))
	mux.HandleFunc("DELETE /claims/{id}", middleware.RateLimit(claimHandler.DeleteClaim))
	mux.HandleFunc("GET /families/{id}/claims", claimHandler.ListFamilyClaims)
	mux.HandleFunc("GET /children/{id}/claims", claimHandler.ListChildClaims)

	// Live family dashboard
	mux.HandleFunc("GET /families/{id}/stream", streamHandler.Stream)

	// Locally stored uploads
	if cfg.StorageBackend == "local" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.StorageLocalPath))))
	}

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// newObjectStore picks the configured image storage backend
func newObjectStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	if cfg.StorageBackend == "s3" {
		return objectstore.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3KeyPrefix, cfg.StorageBaseURL)
	}
	return objectstore.NewLocalStore(cfg.StorageLocalPath, cfg.AppBaseURL+cfg.StorageBaseURL)
}
