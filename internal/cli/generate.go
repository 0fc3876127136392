package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okarpov/verilab/internal/dataset"
	"github.com/okarpov/verilab/internal/llm"
	"github.com/okarpov/verilab/internal/model"
	"github.com/spf13/cobra"
)

var (
	genOut         string
	genPerCategory int
	genWorkers     int
	genTimeout     time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an adversarial trap-question dataset",
	Long: `Generate red-teams the claim-extraction agent offline: it asks the LLM
for plausible-but-tricky questions across five trap categories (fake events,
fake science, non-existent works, subtle misinformation, obscure facts) and
writes them to a CSV the run command can draw from.

Example:
  verilab generate
  verilab generate --out traps.csv --per-category 5
  verilab generate --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genOut, "out", "", "output CSV path (default: adversarial_dataset.csv)")
	generateCmd.Flags().IntVar(&genPerCategory, "per-category", 0, "questions per category (default: 3)")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 0, "concurrent category workers (default: 2)")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 5*time.Minute, "total generation timeout")

	generateCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (groq, openai, anthropic, ollama)")
	generateCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	if genOut != "" {
		cfg.Dataset.Path = genOut
	}
	if genPerCategory > 0 {
		cfg.Dataset.QuestionsPerCategory = genPerCategory
	}
	if genWorkers > 0 {
		cfg.Dataset.Workers = genWorkers
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	if err := resolveLLMCredential(cfg); err != nil {
		return err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("an LLM provider is required (set --llm-provider)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), genTimeout)
	defer cancel()

	total := cfg.Dataset.QuestionsPerCategory * len(dataset.DefaultCategories)
	fmt.Fprintf(os.Stderr, "😈 Generating %d adversarial questions with %s...\n", total, provider.Name())

	gen := dataset.NewGenerator(provider, cfg.Dataset.QuestionsPerCategory, cfg.Dataset.Workers)
	questions, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}

	if err := dataset.WriteCSV(cfg.Dataset.Path, questions); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d questions to %s\n", len(questions), cfg.Dataset.Path)
	fmt.Fprintf(os.Stderr, "Check the file and remove any bad rows manually.\n")

	return nil
}
