package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

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
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, relying on environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cmsClient := cms.NewClient(cfg)

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	groqClient := llm.NewGroqClient(cfg)

	embedGen, err := llm.NewCachedEmbeddingGenerator(geminiClient, cfg.EmbeddingCachePath)
	if err != nil {
		log.Fatalf("Failed to initialize embedding cache: %v", err)
	}
	defer func() {
		if err := embedGen.SaveCache(); err != nil {
			log.Printf("Warning: failed to save embedding cache: %v", err)
		}
	}()

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

	archive, err := storage.NewFormulaArchive(cfg.FormulaArchivePath)
	if err != nil {
		log.Fatalf("Failed to initialize formula archive: %v", err)
	}

	metricsStore := metrics.NewStore(db.SQL)
	supplementCoach := coach.New(groqClient, embedGen, vectorRepo, monographRepo)

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

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		if err := application.IngestMonographs(ctx); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
	case "plan":
		planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
		user := planCmd.String("user", "cli", "User ID")
		kind := planCmd.String("kind", "nutrition", "Plan kind: nutrition, workout or lifestyle")
		planCmd.Parse(os.Args[2:])

		goals := strings.Join(planCmd.Args(), " ")
		if _, err := application.GeneratePlan(ctx, *user, plan.Kind(*kind), goals); err != nil {
			log.Fatalf("Plan generation failed: %v", err)
		}
	case "formula":
		formulaCmd := flag.NewFlagSet("formula", flag.ExitOnError)
		user := formulaCmd.String("user", "cli", "User ID")
		formulaCmd.Parse(os.Args[2:])

		goals := strings.Join(formulaCmd.Args(), " ")
		if _, _, err := application.GenerateFormula(ctx, *user, goals); err != nil {
			log.Fatalf("Formula generation failed: %v", err)
		}
	case "customize":
		customizeCmd := flag.NewFlagSet("customize", flag.ExitOnError)
		user := customizeCmd.String("user", "cli", "User ID")
		customizeCmd.Parse(os.Args[2:])

		feedback := strings.Join(customizeCmd.Args(), " ")
		if feedback == "" {
			log.Fatal("customize requires free-text feedback, e.g.: customize remove melatonin")
		}
		if _, _, err := application.CustomizeFormula(ctx, *user, feedback); err != nil {
			log.Fatalf("Formula customization failed: %v", err)
		}
	case "check":
		checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
		user := checkCmd.String("user", "cli", "User ID")
		checkCmd.Parse(os.Args[2:])

		if _, err := application.CheckFormula(ctx, *user); err != nil {
			log.Fatalf("Safety check failed: %v", err)
		}
	case "meds":
		medsCmd := flag.NewFlagSet("meds", flag.ExitOnError)
		user := medsCmd.String("user", "cli", "User ID")
		medsCmd.Parse(os.Args[2:])

		if err := runMedsCommand(ctx, application, *user, medsCmd.Args()); err != nil {
			log.Fatalf("Medication command failed: %v", err)
		}
	case "publish":
		publishCmd := flag.NewFlagSet("publish", flag.ExitOnError)
		user := publishCmd.String("user", "cli", "User ID")
		publishCmd.Parse(os.Args[2:])

		if err := application.PublishReport(ctx, *user); err != nil {
			log.Fatalf("Publishing failed: %v", err)
		}
	case "clip":
		if len(os.Args) < 3 {
			log.Fatal("clip requires a URL")
		}
		articleClipper := clipper.NewClipper(cmsClient, groqClient)
		article, err := articleClipper.ClipURL(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Clipping failed: %v", err)
		}
		fmt.Printf("Clipped %q into the CMS.\n", article.Title)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runMedsCommand(ctx context.Context, application *app.App, user string, args []string) error {
	if len(args) == 0 {
		meds, err := application.ListMedications(ctx, user)
		if err != nil {
			return err
		}
		if len(meds) == 0 {
			fmt.Println("No medications on file.")
			return nil
		}
		for _, m := range meds {
			fmt.Printf("- %s\n", m)
		}
		return nil
	}

	action, name := args[0], strings.Join(args[1:], " ")
	switch action {
	case "add":
		return application.AddMedication(ctx, user, name)
	case "remove":
		return application.RemoveMedication(ctx, user, name)
	default:
		return fmt.Errorf("unknown meds action %q, expected add or remove", action)
	}
}

func printUsage() {
	fmt.Println("Usage: supplement-coach <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest             Fetch ingredient articles from the CMS and build monographs")
	fmt.Println("  plan               Generate a weekly plan (-user, -kind, goals as trailing args)")
	fmt.Println("  formula            Generate a supplement formula (-user, goals as trailing args)")
	fmt.Println("  customize          Adjust the current formula with free-text feedback (-user)")
	fmt.Println("  check              Re-run safety checks on the current formula (-user)")
	fmt.Println("  meds               List or edit medications (-user, then: add <name> | remove <name>)")
	fmt.Println("  publish            Publish the current formula as a CMS report draft (-user)")
	fmt.Println("  clip <url>         Clip an ingredient article into the CMS")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days)")
}
