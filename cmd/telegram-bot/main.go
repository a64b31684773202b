package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"supplement-coach/internal/app"
	"supplement-coach/internal/clipper"
	"supplement-coach/internal/cms"
	"supplement-coach/internal/coach"
	"supplement-coach/internal/config"
	"supplement-coach/internal/database"
	"supplement-coach/internal/formula"
	"supplement-coach/internal/llm"
	"supplement-coach/internal/metrics"
	"supplement-coach/internal/monograph"
	"supplement-coach/internal/plan"
	"supplement-coach/internal/profile"
	"supplement-coach/internal/storage"
	"supplement-coach/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, relying on environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	groqClient := llm.NewGroqClient(cfg)

	embedGen, err := llm.NewCachedEmbeddingGenerator(geminiClient, cfg.EmbeddingCachePath)
	if err != nil {
		log.Fatalf("Failed to initialize embedding cache: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	planRepo := plan.NewRepository(db.SQL)
	formulaRepo := formula.NewRepository(db.SQL)
	profileRepo := profile.NewRepository(db.SQL)
	monographRepo := monograph.NewRepository(db.SQL)
	vectorRepo := llm.NewVectorRepository(db.SQL)
	sessionRepo := telegram.NewSessionRepository(db.SQL)

	archive, err := storage.NewFormulaArchive(cfg.FormulaArchivePath)
	if err != nil {
		log.Fatalf("Failed to initialize formula archive: %v", err)
	}

	cmsClient := cms.NewClient(cfg)
	metricsStore := metrics.NewStore(db.SQL)
	supplementCoach := coach.New(groqClient, embedGen, vectorRepo, monographRepo)
	articleClipper := clipper.NewClipper(cmsClient, groqClient)

	application := app.NewApp(
		cmsClient,
		groqClient,
		embedGen,
		supplementCoach,
		metricsStore,
		archive,
		cfg,
		db,
		planRepo,
		formulaRepo,
		profileRepo,
		monographRepo,
		vectorRepo,
	)

	bot, err := telegram.NewBot(cfg, application, articleClipper, metricsStore, sessionRepo)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := embedGen.SaveCache(); err != nil {
		log.Printf("Warning: failed to save embedding cache: %v", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
