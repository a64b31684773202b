package app

import (
	"context"
	"fmt"
	"log"
	"strings"

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
	"supplement-coach/internal/safety"
	"supplement-coach/internal/storage"
)

// App holds the application's dependencies.
type App struct {
	cmsClient    cms.Client
	textGen      llm.TextGenerator
	embedGen     llm.EmbeddingGenerator
	coach        *coach.Coach
	metricsStore *metrics.Store
	archive      *storage.FormulaArchive
	cfg          *config.Config

	db            *database.DB
	planRepo      *plan.Repository
	formulaRepo   *formula.Repository
	profileRepo   *profile.Repository
	monographRepo *monograph.Repository
	vectorRepo    *llm.VectorRepository
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cmsClient cms.Client,
	textGen llm.TextGenerator,
	embedGen llm.EmbeddingGenerator,
	supplementCoach *coach.Coach,
	metricsStore *metrics.Store,
	archive *storage.FormulaArchive,
	cfg *config.Config,
	db *database.DB,
	planRepo *plan.Repository,
	formulaRepo *formula.Repository,
	profileRepo *profile.Repository,
	monographRepo *monograph.Repository,
	vectorRepo *llm.VectorRepository,
) *App {
	return &App{
		cmsClient:     cmsClient,
		textGen:       textGen,
		embedGen:      embedGen,
		coach:         supplementCoach,
		metricsStore:  metricsStore,
		archive:       archive,
		cfg:           cfg,
		db:            db,
		planRepo:      planRepo,
		formulaRepo:   formulaRepo,
		profileRepo:   profileRepo,
		monographRepo: monographRepo,
		vectorRepo:    vectorRepo,
	}
}

// GeneratePlan generates, stores, and prints a weekly plan of the given kind.
func (a *App) GeneratePlan(ctx context.Context, userID string, kind plan.Kind, goals string) (*plan.WeeklyPlan, error) {
	fmt.Printf("Generating %s plan for: \"%s\"...\n", kind, goals)

	result, err := a.coach.GenerateWeeklyPlan(ctx, coach.PlanRequest{
		UserID: userID,
		Kind:   kind,
		Goals:  goals,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	if err := a.metricsStore.RecordMeta(ctx, result.Meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", result.Meta.AgentName, err)
	}

	if _, err := a.planRepo.Save(ctx, userID, *result.Plan); err != nil {
		log.Printf("Warning: failed to save plan: %v", err)
	}

	printPlan(result.Plan)
	return result.Plan, nil
}

// GenerateFormula designs a new formula for the user, runs the safety checks
// against the user's medications, and persists version 1.
func (a *App) GenerateFormula(ctx context.Context, userID, goals string) (*formula.Formula, []string, error) {
	fmt.Printf("Designing formula for: \"%s\"...\n", goals)

	medications, err := a.profileRepo.GetMedications(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load medications: %w", err)
	}

	result, err := a.coach.GenerateFormula(ctx, coach.FormulaRequest{
		UserID:      userID,
		Goals:       goals,
		Medications: medications,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate formula: %w", err)
	}

	if err := a.metricsStore.RecordMeta(ctx, result.Meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", result.Meta.AgentName, err)
	}

	if err := a.saveFormulaVersion(ctx, result.Formula); err != nil {
		return nil, nil, err
	}

	printFormula(result.Formula, result.Warnings)
	return result.Formula, result.Warnings, nil
}

// CustomizeFormula applies free-form feedback to the user's latest formula as
// a new immutable version.
func (a *App) CustomizeFormula(ctx context.Context, userID, feedback string) (*formula.Formula, []string, error) {
	current, err := a.formulaRepo.GetLatestForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load current formula: %w", err)
	}
	if current == nil {
		return nil, nil, fmt.Errorf("no formula exists for user %s yet", userID)
	}

	medications, err := a.profileRepo.GetMedications(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load medications: %w", err)
	}

	result, err := a.coach.ReviewCustomization(ctx, current, feedback, medications)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to customize formula: %w", err)
	}

	if err := a.metricsStore.RecordMeta(ctx, result.Meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", result.Meta.AgentName, err)
	}

	if err := a.saveFormulaVersion(ctx, result.Formula); err != nil {
		return nil, nil, err
	}

	if result.Notes != "" {
		fmt.Printf("\nReviewer: %s\n", result.Notes)
	}
	printFormula(result.Formula, result.Warnings)
	return result.Formula, result.Warnings, nil
}

// CheckFormula re-runs the safety rules for the user's latest formula without
// calling any model. Useful after a medication change.
func (a *App) CheckFormula(ctx context.Context, userID string) ([]string, error) {
	current, err := a.formulaRepo.GetLatestForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current formula: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("no formula exists for user %s yet", userID)
	}

	medications, err := a.profileRepo.GetMedications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load medications: %w", err)
	}

	warnings := safety.Evaluate(current.Ingredients(), medications)
	printWarnings(warnings)
	return warnings, nil
}

// AddMedication records a medication on the user's profile.
func (a *App) AddMedication(ctx context.Context, userID, name string) error {
	return a.profileRepo.AddMedication(ctx, userID, name)
}

// RemoveMedication removes a medication from the user's profile.
func (a *App) RemoveMedication(ctx context.Context, userID, name string) error {
	return a.profileRepo.RemoveMedication(ctx, userID, name)
}

// ListMedications returns the user's medications in sorted order.
func (a *App) ListMedications(ctx context.Context, userID string) ([]string, error) {
	return a.profileRepo.GetMedications(ctx, userID)
}

// PublishReport renders the user's latest formula as HTML and publishes it
// through the CMS Admin API.
func (a *App) PublishReport(ctx context.Context, userID string) error {
	current, err := a.formulaRepo.GetLatestForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load current formula: %w", err)
	}
	if current == nil {
		return fmt.Errorf("no formula exists for user %s yet", userID)
	}

	medications, err := a.profileRepo.GetMedications(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}
	warnings := safety.Evaluate(current.Ingredients(), medications)

	title := fmt.Sprintf("Formula Report v%d", current.Version)
	article, err := a.cmsClient.PublishArticle(title, formatReportHTML(current, warnings), false)
	if err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	fmt.Printf("Published report draft %s.\n", article.ID)
	return nil
}

func (a *App) saveFormulaVersion(ctx context.Context, f *formula.Formula) error {
	if err := a.formulaRepo.SaveVersion(ctx, f); err != nil {
		return fmt.Errorf("failed to save formula version: %w", err)
	}
	if a.archive != nil {
		if err := a.archive.Save(f); err != nil {
			log.Printf("Warning: failed to archive formula version: %v", err)
		}
	}
	return nil
}

func printPlan(p *plan.WeeklyPlan) {
	fmt.Printf("\n=== WEEKLY %s PLAN ===\n", strings.ToUpper(string(p.Kind)))
	for _, day := range p.Days {
		fmt.Printf("%-10s", day.DayName)
		switch {
		case len(day.Meals) > 0:
			names := make([]string, 0, len(day.Meals))
			for _, m := range day.Meals {
				names = append(names, m.Name)
			}
			fmt.Printf(" %s\n", strings.Join(names, " / "))
		case day.Workout != nil:
			fmt.Printf(" %s (%d exercises)\n", day.Workout.Focus, len(day.Workout.Exercises))
		case day.Routine != nil:
			fmt.Printf(" Habit: %s\n", day.Routine.Habit)
		default:
			fmt.Println()
		}
	}
	if p.AutoHeal.MissingDays > 0 {
		fmt.Printf("\nNote: %d day(s) were missing from the generated plan and were filled with placeholders.\n", p.AutoHeal.MissingDays)
	}
}

func printFormula(f *formula.Formula, warnings []string) {
	fmt.Printf("\n=== FORMULA v%d ===\n", f.Version)
	for _, ing := range f.Ingredients() {
		fmt.Printf("- %s: %g %s", ing.Name, ing.Amount, ing.Unit)
		if ing.Purpose != "" {
			fmt.Printf(" (%s)", ing.Purpose)
		}
		fmt.Println()
	}
	fmt.Printf("Total daily dose: %.2f g\n", f.TotalDoseGrams)
	printWarnings(warnings)
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		fmt.Println("\nNo safety warnings.")
		return
	}
	fmt.Println("\n=== SAFETY WARNINGS ===")
	for _, w := range warnings {
		fmt.Printf("! %s\n", w)
	}
}

func formatReportHTML(f *formula.Formula, warnings []string) string {
	var sb strings.Builder
	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range f.Ingredients() {
		fmt.Fprintf(&sb, "<li>%s: %g %s</li>", ing.Name, ing.Amount, ing.Unit)
	}
	sb.WriteString("</ul>")

	if len(warnings) > 0 {
		sb.WriteString("<h2>Safety Warnings</h2><ul>")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "<li>%s</li>", w)
		}
		sb.WriteString("</ul>")
	}

	fmt.Fprintf(&sb, "<p><strong>Total daily dose:</strong> %.2f g</p>", f.TotalDoseGrams)
	return sb.String()
}
