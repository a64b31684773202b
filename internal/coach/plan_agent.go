package coach

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"supplement-coach/internal/aiparse"
	"supplement-coach/internal/plan"
	"supplement-coach/internal/shared"
)

//go:embed plan_prompt.md
var planPrompt string

// PlanRequest describes what kind of weekly plan to generate for whom.
type PlanRequest struct {
	UserID    string
	Kind      plan.Kind
	Goals     string
	WeekStart time.Time
}

// PlanResult bundles a normalized weekly plan with agent metadata.
type PlanResult struct {
	Plan *plan.WeeklyPlan
	Meta shared.AgentMeta
}

type planPromptData struct {
	Kind  string
	Goals string
	Days  []string
}

// GenerateWeeklyPlan asks the model for a weekly plan of the requested kind
// and normalizes whatever comes back into a complete 7-day week.
func (c *Coach) GenerateWeeklyPlan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	start := time.Now()

	days := make([]string, 7)
	for i := range days {
		days[i] = plan.WeekdayName(i + 1)
	}

	prompt, err := buildPlanPrompt(planPromptData{
		Kind:  string(req.Kind),
		Goals: req.Goals,
		Days:  days,
	})
	if err != nil {
		return PlanResult{}, err
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return PlanResult{}, fmt.Errorf("failed to generate weekly plan: %w", err)
	}

	meta := newMeta("PlanAgent", resp.Usage, resp.Content)

	parsed, err := aiparse.Parse(resp.Content)
	if err != nil {
		return PlanResult{Meta: meta}, fmt.Errorf("failed to parse weekly plan response: %w", err)
	}

	weekly := plan.NormalizeDocument(parsed, req.Kind)
	weekStart := req.WeekStart
	if weekStart.IsZero() {
		weekStart = plan.GetNextMonday(time.Now())
	}
	weekly.WeekStart = weekStart

	meta.Latency = time.Since(start)
	return PlanResult{Plan: weekly, Meta: meta}, nil
}

func buildPlanPrompt(data planPromptData) (string, error) {
	tmpl, err := template.New("plan").Parse(planPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
