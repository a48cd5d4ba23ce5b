package coach

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// GenkitGenerator produces replies through a Genkit model.
type GenkitGenerator struct {
	g           *genkit.Genkit
	modelName   string
	maxTokens   int
	temperature float32
}

// NewGenkitGenerator creates a generator for the given fully qualified model
// name, e.g. "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, modelName string, maxTokens int, temperature float32) *GenkitGenerator {
	return &GenkitGenerator{g: g, modelName: modelName, maxTokens: maxTokens, temperature: temperature}
}

// Generate sends the prompt to the model and returns the text reply.
func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithConfig(&genai.GenerateContentConfig{
			MaxOutputTokens: int32(gg.maxTokens),
			Temperature:     genai.Ptr(gg.temperature),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("model generate: %w", err)
	}
	return resp.Text(), nil
}
