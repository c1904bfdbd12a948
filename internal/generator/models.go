package generator

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"google.golang.org/genai"
)

// ListGenerativeModels returns the models that support generateContent.
// It is an administrative lookup for rotating GEMINI_MODEL and is never
// called on the request path.
func ListGenerativeModels(ctx context.Context, apiKey string) ([]string, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	var names []string
	for m, err := range gc.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if slices.Contains(m.SupportedActions, "generateContent") {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
