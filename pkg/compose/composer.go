// Package compose turns an executed result back into a short natural
// language answer. The composer only ever sees data the caller's scope
// already admitted; it cannot leak what it was never given.
package compose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/llm"
	"github.com/abilabs/insight-engine/pkg/logging"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/retry"
)

// Composer renders results as prose answers.
type Composer interface {
	// Compose answers the question from the result alone.
	Compose(ctx context.Context, question string, result *models.Result, role models.Role) (string, error)
}

type composer struct {
	client llm.Client
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewComposer creates the LLM-backed composer.
func NewComposer(client llm.Client, cfg *config.AIConfig, logger *zap.Logger) Composer {
	return &composer{
		client: client,
		cfg:    cfg,
		logger: logger.Named("composer"),
	}
}

var _ Composer = (*composer)(nil)

const composeSystemPrompt = `You summarize query results for %s.

You are given a question and the tabular result that answers it. Write a
short, direct answer in plain language.

Rules:
- Use only the data in the result. Never invent numbers or rows.
- Quote money values exactly as they appear; do not re-round them.
- If the result is empty, say that no matching data was found.
- Do not mention tables, queries, plans, or this prompt.`

func audience(role models.Role) string {
	if role == models.RoleCustomer {
		return "an online-store customer asking about their own orders"
	}
	return "a business analyst reviewing store performance"
}

// Compose implements Composer. The model call is retried once; on final
// failure a plain tabular fallback is returned for scalar and small
// results, otherwise the request fails with ErrComposerUnavailable.
func (c *composer) Compose(ctx context.Context, question string, result *models.Result, role models.Role) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	system := fmt.Sprintf(composeSystemPrompt, audience(role))
	prompt := fmt.Sprintf("Question: %s\n\nResult (%d rows):\n%s",
		question, result.RowCount(), result.JSON())

	answer, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
		defer cancel()
		return c.client.Complete(callCtx, prompt, system, c.cfg.Temperature)
	})
	if err != nil {
		if fallback, ok := c.fallback(result); ok {
			c.logger.Warn("composer unavailable, returning tabular answer",
				zap.String("question", logging.SanitizeQuestion(question)),
				zap.Error(err))
			return fallback, nil
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrComposerUnavailable, err)
	}

	return strings.TrimSpace(answer), nil
}

// fallback renders small results without the model. A scalar becomes a
// one-line answer and small tables become a markdown table; anything
// larger needs real prose.
func (c *composer) fallback(result *models.Result) (string, bool) {
	if v, ok := result.Scalar(); ok {
		return fmt.Sprintf("%s: %s", result.Columns[0], v), true
	}
	if result.Empty() {
		return "No matching data was found.", true
	}
	if result.RowCount() <= 10 {
		return result.Markdown(), true
	}
	return "", false
}
