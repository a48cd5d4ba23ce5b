// Package coach orchestrates one chat turn: retrieve knowledge passages,
// prompt the language model, and score the message for carbon savings.
package coach

import (
	"context"
	"fmt"

	"github.com/verda0/verda/internal/carbon"
	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
)

// Retriever finds knowledge passages relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]rag.Passage, error)
}

// Generator produces a model reply for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Turn is the outcome of a single chat exchange.
type Turn struct {
	Reply       string `json:"reply"`
	CarbonSaved int    `json:"carbon_saved"`
}

// Coach answers user messages with retrieval-augmented replies.
type Coach struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    log.Logger
}

// New creates a Coach retrieving topK passages per turn.
func New(retriever Retriever, generator Generator, topK int, logger log.Logger) *Coach {
	return &Coach{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Reply handles one chat turn. The carbon estimate is computed from the raw
// user message, not the model reply, so a flaky model never changes the score.
func (c *Coach) Reply(ctx context.Context, message string) (Turn, error) {
	passages, err := c.retriever.Search(ctx, message, c.topK)
	if err != nil {
		return Turn{}, fmt.Errorf("retrieving knowledge: %w", err)
	}

	prompt := buildPrompt(message, passages)

	reply, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return Turn{}, fmt.Errorf("generating reply: %w", err)
	}

	c.logger.Debug("chat turn completed",
		"passages", len(passages),
		"reply_len", len(reply))

	return Turn{
		Reply:       reply,
		CarbonSaved: carbon.Estimate(message),
	}, nil
}
