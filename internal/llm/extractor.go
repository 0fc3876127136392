package llm

import (
	"context"
	"fmt"
	"strings"
)

const claimSystem = "You are a rigorous research assistant that extracts claims strictly grounded in the provided text."

// ClaimExtractor wraps a Provider to produce short source-grounded claims.
// The grounding rules live in the prompt: the claim must be derivable only
// from the supplied text, with no outside knowledge, and stay under two
// sentences.
type ClaimExtractor struct {
	provider Provider
}

// NewClaimExtractor creates a claim extractor backed by the given provider.
func NewClaimExtractor(provider Provider) *ClaimExtractor {
	return &ClaimExtractor{provider: provider}
}

// BuildClaimPrompt constructs the grounded-only extraction prompt.
func BuildClaimPrompt(sourceText string) string {
	return fmt.Sprintf(`Based ONLY on the text below, extract the key factual claim.
Do not add outside knowledge. Limit to 2 sentences.

Text: %s`, sourceText)
}

// ExtractClaim generates a claim from the given evidence text.
func (e *ClaimExtractor) ExtractClaim(ctx context.Context, sourceText string) (string, error) {
	if strings.TrimSpace(sourceText) == "" {
		return "", fmt.Errorf("empty source text")
	}

	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:      claimSystem,
		Prompt:      BuildClaimPrompt(sourceText),
		Temperature: 0, // deterministic extraction
	})
	if err != nil {
		return "", fmt.Errorf("extract claim: %w", err)
	}

	claim := strings.TrimSpace(resp.Text)
	if claim == "" {
		return "", fmt.Errorf("provider %s returned an empty claim", e.provider.Name())
	}

	return claim, nil
}
