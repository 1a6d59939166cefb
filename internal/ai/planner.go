package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"plano/internal"
	"plano/internal/pipeline"
)

var (
	ErrGeneration = errors.New("draft actions")
	ErrRewrite    = errors.New("rewrite text")
	ErrSummary    = errors.New("executive summary")
)

const (
	msgGeneration = "Ocorreu um erro ao gerar o plano de ação. Por favor, tente novamente."
	msgRewrite    = "Ocorreu um erro ao reescrever o texto. Por favor, tente novamente."
	msgSummary    = "Ocorreu um erro ao gerar o relatório. Por favor, tente novamente."
)

// GenerateActionPlan drafts 3 to 5 actions for the goal. Every action's
// origin is pinned to the plan reason.
func (c *Client) GenerateActionPlan(ctx context.Context, req internal.GenerationRequest) ([]internal.ActionRecord, error) {
	if req.Reason == "" {
		req.Reason = internal.ReasonOutros
	}
	records, err := c.draft(ctx, c.actionPlanPrompt(req), c.actionListSchema(enumValues(internal.AllReasons)))
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Origin = string(req.Reason)
	}
	return records, nil
}

// GenerateSubTasks breaks a goal, and optionally a source document, into
// actions originating from AI planning.
func (c *Client) GenerateSubTasks(ctx context.Context, goal, fileContent string) ([]internal.ActionRecord, error) {
	origin := string(internal.ReasonPlanejamentoIA)
	records, err := c.draft(ctx, c.subTasksPrompt(goal, fileContent), c.actionListSchema([]string{origin}))
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Origin = origin
	}
	return records, nil
}

// GenerateSubTasksForAction decomposes parent into 1 to 3 subtasks that keep
// its origin and pillar. Subtasks without a usable deadline are dropped and
// deadlines later than the parent's are clamped.
func (c *Client) GenerateSubTasksForAction(ctx context.Context, parent internal.ActionRecord) ([]internal.ActionRecord, error) {
	records, err := c.draft(ctx, c.subTasksForActionPrompt(parent), c.actionListSchema(enumValues(internal.AllReasons)))
	if err != nil {
		return nil, err
	}
	parentDue, parentErr := pipeline.CoerceDate(pipeline.TextCell(parent.DueDate))

	out := make([]internal.ActionRecord, 0, len(records))
	for _, r := range records {
		due, err := pipeline.CoerceDate(pipeline.TextCell(r.DueDate))
		if err != nil {
			c.log.Warnw("subtask dropped", "title", r.Title, "dueDate", r.DueDate, "error", err)
			continue
		}
		// both dates are YYYY-MM-DD here, so string order is date order
		if parentErr == nil && due > parentDue {
			due = parentDue
		}
		r.DueDate = due
		r.Origin = parent.Origin
		r.StrategicPillar = parent.StrategicPillar
		if !strings.HasPrefix(r.Title, "Sub: ") && !strings.HasPrefix(r.Title, "Etapa: ") {
			r.Title = "Sub: " + r.Title
		}
		out = append(out, r)
	}
	return out, nil
}

// RewriteText returns text reworded in a professional tone.
func (c *Client) RewriteText(ctx context.Context, text, fieldContext string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	out, err := c.generate(ctx, rewritePrompt(text, fieldContext), nil)
	if err != nil {
		c.log.Errorw("rewrite failed", "field", fieldContext, "error", err)
		return "", &Error{Message: msgRewrite, Err: fmt.Errorf("%w: %w", ErrRewrite, err)}
	}
	return out, nil
}

// ExecutiveSummary writes the markdown narrative for a plan report.
func (c *Client) ExecutiveSummary(ctx context.Context, items []internal.ActionItem, planName, clientName string) (string, error) {
	prompt, err := summaryPrompt(items, planName, clientName)
	if err != nil {
		return "", err
	}
	out, err := c.generate(ctx, prompt, nil)
	if err != nil {
		c.log.Errorw("executive summary failed", "plan", planName, "error", err)
		return "", &Error{Message: msgSummary, Err: fmt.Errorf("%w: %w", ErrSummary, err)}
	}
	return out, nil
}

func (c *Client) draft(ctx context.Context, prompt string, schema *Schema) ([]internal.ActionRecord, error) {
	text, err := c.generate(ctx, prompt, schema)
	if err != nil {
		c.log.Errorw("action drafting failed", "error", err)
		return nil, &Error{Message: msgGeneration, Err: fmt.Errorf("%w: %w", ErrGeneration, err)}
	}
	records, err := parseSuggestions(text)
	if err != nil {
		c.log.Errorw("action drafting returned invalid json", "error", err, "chars", len(text))
		return nil, &Error{Message: msgGeneration, Err: fmt.Errorf("%w: %w", ErrGeneration, err)}
	}
	return records, nil
}
