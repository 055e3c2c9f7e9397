// Package planner turns a natural-language question into a validated
// QueryPlan. The model proposes, the validator disposes: nothing the
// model writes is executed until it has passed the schema and operator
// whitelists, and a failed validation earns exactly one re-plan with the
// validation error fed back before the request fails closed.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/llm"
	"github.com/abilabs/insight-engine/pkg/logging"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/retry"
	"github.com/abilabs/insight-engine/pkg/schema"
)

// Translator produces validated query plans from questions.
type Translator interface {
	// Translate maps a question to a plan valid for the given scope.
	Translate(ctx context.Context, question string, accessScope models.AccessScope) (*models.QueryPlan, error)
}

type translator struct {
	client llm.Client
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewTranslator creates the LLM-backed plan translator.
func NewTranslator(client llm.Client, cfg *config.AIConfig, logger *zap.Logger) Translator {
	return &translator{
		client: client,
		cfg:    cfg,
		logger: logger.Named("planner"),
	}
}

var _ Translator = (*translator)(nil)

const planSystemPrompt = `You translate questions about an e-commerce dataset into a JSON query plan.

Respond with a single JSON object and nothing else:
{
  "table": "<table name>",
  "columns": ["<column>", ...],           // optional, omit for all columns
  "filters": [{"column": "...", "op": "...", "value": "..."}],
  "group_by": ["<column>", ...],          // optional, requires aggregate
  "aggregate": {"op": "...", "column": "..."},  // optional
  "sort": {"column": "...", "descending": true},  // optional
  "limit": 0                              // optional, 0 means no limit
}

Filter operators: eq, ne, lt, lte, gt, gte, contains, in, not_in.
Values for in/not_in are comma-separated. Date values use YYYY-MM-DD, or
the literal "now" for the current moment.
Aggregate operators: sum, count, avg, min, max.

Tables and columns:
%s
Rules:
- Use only the tables and columns listed above.
- Order statuses are: Placed, Shipped, Delivered, Delayed, Cancelled.
- A "delayed" or "late" order has estimated_delivery before now and a
  status that is not Delivered or Cancelled.
- Never invent columns, tables, or operators.%s`

const customerRules = `
- This is a customer session: never use aggregates or group_by, and do
  not filter on other customers.`

func (t *translator) systemPrompt(accessScope models.AccessScope) string {
	extra := ""
	if accessScope.Role == models.RoleCustomer {
		extra = customerRules
	}
	return fmt.Sprintf(planSystemPrompt, schema.PromptText(), extra)
}

// Translate implements Translator.
func (t *translator) Translate(ctx context.Context, question string, accessScope models.AccessScope) (*models.QueryPlan, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("empty question: %w", apperrors.ErrUnsupportedPlan)
	}

	system := t.systemPrompt(accessScope)
	prompt := question
	var lastValidation error

	// One initial attempt plus cfg.PlanRetries re-plans with the
	// validation error appended, then fail closed.
	for attempt := 0; attempt <= t.cfg.PlanRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		response, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (string, error) {
			// Each call carries its own deadline so a stalled model
			// endpoint fails closed instead of hanging the request.
			callCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout())
			defer cancel()
			return t.client.Complete(callCtx, prompt, system, t.cfg.Temperature)
		})
		if err != nil {
			if plan := t.fallback(question, accessScope); plan != nil {
				return plan, nil
			}
			t.logger.Error("plan generation failed",
				zap.String("question", logging.SanitizeQuestion(question)),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPlannerUnavailable, err)
		}

		plan, err := llm.ParseJSONResponse[*models.QueryPlan](response)
		if err != nil {
			lastValidation = fmt.Errorf("response was not a plan object: %w", apperrors.ErrUnsupportedPlan)
			prompt = replanPrompt(question, lastValidation)
			continue
		}

		if err := Validate(plan, accessScope); err != nil {
			t.logger.Debug("plan rejected",
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastValidation = err
			prompt = replanPrompt(question, err)
			continue
		}

		t.logger.Info("plan accepted",
			zap.String("table", plan.Table),
			zap.Bool("aggregated", plan.Aggregated()),
			zap.Int("attempt", attempt))
		return plan, nil
	}

	if plan := t.fallback(question, accessScope); plan != nil {
		return plan, nil
	}
	if errors.Is(lastValidation, apperrors.ErrUnknownColumn) {
		return nil, lastValidation
	}
	return nil, fmt.Errorf("no valid plan after re-plan: %w", apperrors.ErrUnsupportedPlan)
}

func replanPrompt(question string, validation error) string {
	return fmt.Sprintf("%s\n\nYour previous plan was rejected: %s\nProduce a corrected plan.",
		question, validation.Error())
}

// fallback tries the canned plans and revalidates them against the scope,
// so the degraded path obeys the same rules as the model path.
func (t *translator) fallback(question string, accessScope models.AccessScope) *models.QueryPlan {
	plan := cannedPlan(question, accessScope)
	if plan == nil {
		return nil
	}
	if err := Validate(plan, accessScope); err != nil {
		return nil
	}
	t.logger.Warn("using canned plan",
		zap.String("table", plan.Table),
		zap.String("question", logging.SanitizeQuestion(question)))
	return plan
}
