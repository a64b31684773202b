package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"supplement-coach/internal/app"
	"supplement-coach/internal/clipper"
	"supplement-coach/internal/config"
	"supplement-coach/internal/formula"
	"supplement-coach/internal/metrics"
	"supplement-coach/internal/plan"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// customizeSessionTTL is how long a /customize prompt stays open waiting
// for the user's free-text feedback.
const customizeSessionTTL = 300

// Bot wraps the Telegram API around the coaching application.
type Bot struct {
	api          *tgbotapi.BotAPI
	app          *app.App
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	sessions     *SessionRepository
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	application *app.App,
	clip *clipper.Clipper,
	metricsStore *metrics.Store,
	sessions *SessionRepository,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		app:          application,
		clipper:      clip,
		metricsStore: metricsStore,
		sessions:     sessions,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	if !b.cfg.AllowsTelegramUser(update.Message.From.ID) {
		log.Printf("Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)
	text := strings.TrimSpace(msg.Text)

	// A pending /customize session claims the next plain message as feedback.
	if !strings.HasPrefix(text, "/") {
		if session, _ := b.sessions.GetActive(ctx, userID, time.Now()); session != nil {
			b.sessions.Delete(ctx, session.ID)
			b.handleCustomizeFeedback(ctx, msg, userID, text)
			return
		}
	}

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg)
		return
	}

	cmd, args := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		b.reply(msg.Chat.ID, helpText)
	case "/plan":
		b.handlePlanRequest(ctx, msg, userID, args)
	case "/formula":
		b.handleFormulaRequest(ctx, msg, userID, args)
	case "/customize":
		b.handleCustomizeRequest(ctx, msg, userID, args)
	case "/check":
		b.handleCheckRequest(ctx, msg, userID)
	case "/meds":
		b.handleMedsRequest(ctx, msg, userID, args)
	case "/metrics":
		b.handleMetricsCommand(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
}

const helpText = `💊 *Supplement Coach*

/plan <nutrition|workout|lifestyle> <goals> - generate a weekly plan
/formula <goals> - generate a supplement formula
/customize - adjust your current formula with free-text feedback
/check - re-run safety checks on your current formula
/meds [add|remove <name>] - manage your medication list
/metrics - usage and system health

Send an article URL to clip it into the ingredient knowledge base.`

func splitCommand(text string) (string, string) {
	cmd, args, _ := strings.Cut(text, " ")
	return cmd, strings.TrimSpace(args)
}

func (b *Bot) handlePlanRequest(ctx context.Context, msg *tgbotapi.Message, userID, args string) {
	kindArg, goals, _ := strings.Cut(args, " ")
	kind := plan.Kind(strings.ToLower(strings.TrimSpace(kindArg)))
	switch kind {
	case plan.KindNutrition, plan.KindWorkout, plan.KindLifestyle:
	default:
		b.reply(msg.Chat.ID, "Usage: /plan <nutrition|workout|lifestyle> <goals>")
		return
	}

	sentMsg, ok := b.replyStatus(msg.Chat.ID, "🗓 *Building your weekly plan...*")
	if !ok {
		return
	}

	weekly, err := b.app.GeneratePlan(ctx, userID, kind, goals)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, "Error generating plan", err)
		return
	}
	b.edit(msg.Chat.ID, sentMsg.MessageID, formatPlanMarkdown(weekly))
}

func (b *Bot) handleFormulaRequest(ctx context.Context, msg *tgbotapi.Message, userID, goals string) {
	if goals == "" {
		b.reply(msg.Chat.ID, "Usage: /formula <goals>")
		return
	}

	sentMsg, ok := b.replyStatus(msg.Chat.ID, "🧪 *Formulating...*")
	if !ok {
		return
	}

	f, warnings, err := b.app.GenerateFormula(ctx, userID, goals)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, "Error generating formula", err)
		return
	}
	b.edit(msg.Chat.ID, sentMsg.MessageID, formatFormulaMarkdown(f, warnings))
}

func (b *Bot) handleCustomizeRequest(ctx context.Context, msg *tgbotapi.Message, userID, args string) {
	// Feedback given inline skips the session round-trip.
	if args != "" {
		b.handleCustomizeFeedback(ctx, msg, userID, args)
		return
	}

	_, err := b.sessions.Create(ctx, userID, "customize", "awaiting_feedback", SessionContextData{}, customizeSessionTTL)
	if err != nil {
		log.Printf("Failed to create customize session for user %s: %v", userID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}
	b.reply(msg.Chat.ID, "✏️ Tell me what to change about your current formula (for example: _remove melatonin, add something for focus_).")
}

func (b *Bot) handleCustomizeFeedback(ctx context.Context, msg *tgbotapi.Message, userID, feedback string) {
	sentMsg, ok := b.replyStatus(msg.Chat.ID, "🧪 *Reviewing your formula...*")
	if !ok {
		return
	}

	f, warnings, err := b.app.CustomizeFormula(ctx, userID, feedback)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, "Error customizing formula", err)
		return
	}
	b.edit(msg.Chat.ID, sentMsg.MessageID, formatFormulaMarkdown(f, warnings))
}

func (b *Bot) handleCheckRequest(ctx context.Context, msg *tgbotapi.Message, userID string) {
	warnings, err := b.app.CheckFormula(ctx, userID)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ %v", err))
		return
	}
	if len(warnings) == 0 {
		b.reply(msg.Chat.ID, "✅ No safety warnings for your current formula.")
		return
	}
	var sb strings.Builder
	sb.WriteString("⚠️ *Safety Warnings*\n\n")
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("• %s\n", w))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleMedsRequest(ctx context.Context, msg *tgbotapi.Message, userID, args string) {
	action, name, _ := strings.Cut(args, " ")
	switch strings.ToLower(action) {
	case "add":
		if err := b.app.AddMedication(ctx, userID, name); err != nil {
			b.reply(msg.Chat.ID, fmt.Sprintf("❌ %v", err))
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("💊 Added *%s* to your medication list.", strings.TrimSpace(name)))
	case "remove":
		if err := b.app.RemoveMedication(ctx, userID, name); err != nil {
			b.reply(msg.Chat.ID, fmt.Sprintf("❌ %v", err))
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("🗑 Removed *%s* from your medication list.", strings.TrimSpace(name)))
	default:
		meds, err := b.app.ListMedications(ctx, userID)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ Error fetching medications.")
			return
		}
		if len(meds) == 0 {
			b.reply(msg.Chat.ID, "No medications on file. Add one with /meds add <name>.")
			return
		}
		var sb strings.Builder
		sb.WriteString("💊 *Medications*\n\n")
		for _, m := range meds {
			sb.WriteString(fmt.Sprintf("• %s\n", m))
		}
		b.reply(msg.Chat.ID, sb.String())
	}
}

func (b *Bot) handleClipperRequest(ctx context.Context, msg *tgbotapi.Message) {
	sentMsg, ok := b.replyStatus(msg.Chat.ID, "✂️ *Clipping article...* \n(Extracting ingredient data for the knowledge base)")
	if !ok {
		return
	}

	article, err := b.clipper.ClipURL(ctx, msg.Text)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, "Error clipping article", err)
		return
	}

	b.edit(msg.Chat.ID, sentMsg.MessageID,
		fmt.Sprintf("✅ *Article Saved!*\n\n*Title:* %s\nIt will join the knowledge base on the next ingestion run.", article.Title))

	// Index the new article right away so retrieval picks it up.
	go b.ingestInBackground(article.Title)
}

func (b *Bot) ingestInBackground(title string) {
	log.Printf("Background: Ingesting clipped article '%s'...", title)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := b.app.IngestMonographs(ctx); err != nil {
		log.Printf("Background Error: ingestion after clipping '%s' failed: %v", title, err)
		return
	}
	log.Printf("Background Success: knowledge base refreshed after clipping '%s'.", title)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Model Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs, %d repaired)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.TotalRepaired))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDirSize))

	b.reply(chatID, sb.String())
}

func formatPlanMarkdown(wp *plan.WeeklyPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Weekly %s Plan* (week of %s)\n\n",
		titleCase(string(wp.Kind)), wp.WeekStart.Format("2006-01-02")))

	for _, day := range wp.Days {
		sb.WriteString(fmt.Sprintf("*%s*\n", day.DayName))
		for _, meal := range day.Meals {
			sb.WriteString(fmt.Sprintf("• %s", meal.Name))
			if meal.Description != "" {
				sb.WriteString(": " + meal.Description)
			}
			sb.WriteString("\n")
		}
		if day.Workout != nil {
			sb.WriteString(fmt.Sprintf("• Focus: %s\n", day.Workout.Focus))
			for _, ex := range day.Workout.Exercises {
				sb.WriteString(fmt.Sprintf("  - %s %sx%s\n", ex.Name, ex.Sets, ex.Reps))
			}
		}
		if day.Routine != nil {
			sb.WriteString(fmt.Sprintf("• Morning: %s\n• Evening: %s\n• Habit: %s\n",
				day.Routine.Morning, day.Routine.Evening, day.Routine.Habit))
		}
		sb.WriteString("\n")
	}

	if wp.AutoHeal.MissingDays > 0 {
		sb.WriteString(fmt.Sprintf("_%d day(s) were filled with placeholders; regenerate to improve them._\n", wp.AutoHeal.MissingDays))
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatFormulaMarkdown(f *formula.Formula, warnings []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧪 *Formula v%d*\n\n", f.Version))
	for _, ing := range f.Ingredients() {
		sb.WriteString(fmt.Sprintf("• *%s* %g %s", ing.Name, ing.Amount, ing.Unit))
		if ing.Purpose != "" {
			sb.WriteString(" - " + ing.Purpose)
		}
		sb.WriteString("\n")
	}
	if len(warnings) > 0 {
		sb.WriteString("\n⚠️ *Warnings*\n")
		for _, w := range warnings {
			sb.WriteString(fmt.Sprintf("• %s\n", w))
		}
	}
	return sb.String()
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func (b *Bot) replyStatus(chatID int64, text string) (tgbotapi.Message, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return tgbotapi.Message{}, false
	}
	return sent, true
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) editError(chatID int64, messageID int, prefix string, err error) {
	log.Printf("%s: %v", prefix, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.edit(chatID, messageID, fmt.Sprintf("❌ *%s:*\n```\n%v\n```", prefix, safeErr))
}
