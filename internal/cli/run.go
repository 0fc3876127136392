package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okarpov/verilab/internal/cache"
	"github.com/okarpov/verilab/internal/dataset"
	"github.com/okarpov/verilab/internal/llm"
	"github.com/okarpov/verilab/internal/model"
	"github.com/okarpov/verilab/internal/reader"
	"github.com/okarpov/verilab/internal/resultlog"
	"github.com/okarpov/verilab/internal/search"
	"github.com/okarpov/verilab/internal/session"
	"github.com/spf13/cobra"
)

var (
	runMode     string
	logPath     string
	datasetPath string
	noCache     bool
	noReader    bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive human-in-the-loop verification session",
	Long: `Run starts the interactive experiment loop. Each trial:
- Take a topic (typed, or drawn from the trap-question dataset)
- Search the web for a single evidence hit
- Extract an AI claim grounded only in that hit
- Collect the human verdict (approve / reject / skip)
- Append verdicted trials to the result log

Blind mode withholds the source evidence from the reviewer (control);
source-grounded mode shows it alongside the claim (treatment).

Example:
  verilab run
  verilab run --mode source_grounded --log results.csv
  verilab run --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", string(model.ModeBlind), "default review mode (blind, source_grounded)")
	runCmd.Flags().StringVar(&logPath, "log", "", "result log path (default: experiment_results.csv)")
	runCmd.Flags().StringVar(&datasetPath, "dataset", "", "trap-question dataset path (default: adversarial_dataset.csv)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search-response cache")
	runCmd.Flags().BoolVar(&noReader, "no-reader", false, "disable full-page reading in source-grounded review")

	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (groq, openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	if logPath != "" {
		cfg.ResultLog.Path = logPath
	}
	if datasetPath != "" {
		cfg.Dataset.Path = datasetPath
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Reader.Enabled = cfg.Reader.Enabled && !noReader
	cfg.Output.Verbose = verbose

	// Both credentials are required before the first trial
	if err := resolveSearchCredential(cfg); err != nil {
		return err
	}
	if err := resolveLLMCredential(cfg); err != nil {
		return err
	}

	defaultMode, err := parseMode(runMode)
	if err != nil {
		return err
	}

	// Assemble collaborators
	var searchCache cache.Cache
	if cfg.Cache.Enabled {
		searchCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	lookup := search.NewClient(cfg.Search, searchCache)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("an LLM provider is required (set --llm-provider)")
	}
	extractor := llm.NewClaimExtractor(provider)

	store := resultlog.NewStore(cfg.ResultLog.Path)
	if err := store.EnsureInitialized(); err != nil {
		return fmt.Errorf("initialize result log: %w", err)
	}

	var pageReader *reader.Reader
	if cfg.Reader.Enabled {
		pageReader = reader.New(cfg.Reader)
	}

	// The dataset is optional: a missing file means free-text entry only
	traps, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load trap dataset: %w", err)
		}
		traps = nil
		if verbose {
			fmt.Fprintf(os.Stderr, "No trap dataset at %s (free-text topics only)\n", cfg.Dataset.Path)
		}
	}

	sess := session.New(lookup, extractor, store)

	ui := &operatorLoop{
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		sess:    sess,
		traps:   traps,
		reader:  pageReader,
		mode:    defaultMode,
		verbose: cfg.Output.Verbose,
	}

	fmt.Fprintf(os.Stderr, "Result log: %s\n", store.Path())
	if traps != nil {
		fmt.Fprintf(os.Stderr, "Trap dataset: %s (%d questions)\n", cfg.Dataset.Path, traps.Len())
	}
	fmt.Fprintln(os.Stderr)

	return ui.Run(cmd.Context())
}

func parseMode(s string) (model.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blind", "b":
		return model.ModeBlind, nil
	case "source_grounded", "source", "grounded", "s":
		return model.ModeSourceGrounded, nil
	default:
		return "", fmt.Errorf("unknown mode %q (blind, source_grounded)", s)
	}
}

// operatorLoop is the terminal front-end around the session state machine.
// It renders only what the session's review view exposes, so the blind-mode
// confidentiality rule is enforced by the session, not here.
type operatorLoop struct {
	in      *bufio.Scanner
	out     io.Writer
	sess    *session.ExperimentSession
	traps   *dataset.Source
	reader  *reader.Reader
	mode    model.Mode
	verbose bool
}

// Run drives trials until the operator quits or stdin closes.
func (l *operatorLoop) Run(ctx context.Context) error {
	for {
		topic, mode, ok := l.intake()
		if !ok {
			return nil
		}

		fmt.Fprintf(l.out, "⚙️  Searching and generating a claim...\n")
		if err := l.sess.Start(ctx, topic, mode); err != nil {
			if errors.Is(err, search.ErrNoEvidence) {
				fmt.Fprintf(l.out, "✗ No results found for %q. Try another topic.\n\n", topic)
			} else {
				fmt.Fprintf(l.out, "✗ Error: %v\n\n", err)
			}
			continue
		}

		if !l.review(ctx) {
			return nil
		}
	}
}

// intake prompts for mode and topic. Returns ok=false on quit or EOF.
func (l *operatorLoop) intake() (string, model.Mode, bool) {
	fmt.Fprintf(l.out, "── Step 1: Define Research Topic ──\n")
	fmt.Fprintf(l.out, "Mode: %s (type 'mode' to toggle)\n", l.mode)

	for {
		prompt := "Topic"
		if l.traps != nil && l.traps.Len() > 0 {
			prompt += " ('trap' for a random trap question, 'list' to browse)"
		}
		fmt.Fprintf(l.out, "%s, or 'quit': ", prompt)

		line, ok := l.readLine()
		if !ok {
			return "", l.mode, false
		}

		switch strings.ToLower(line) {
		case "quit", "q", "exit":
			return "", l.mode, false

		case "mode":
			if l.mode == model.ModeBlind {
				l.mode = model.ModeSourceGrounded
			} else {
				l.mode = model.ModeBlind
			}
			fmt.Fprintf(l.out, "Mode: %s\n", l.mode)

		case "trap":
			if l.traps == nil || l.traps.Len() == 0 {
				fmt.Fprintf(l.out, "✗ No trap dataset loaded. Run 'verilab generate' first.\n")
				continue
			}
			q, err := l.traps.Random()
			if err != nil {
				fmt.Fprintf(l.out, "✗ %v\n", err)
				continue
			}
			fmt.Fprintf(l.out, "🎲 Trap question: %s\n", q.Question)
			return q.Question, l.mode, true

		case "list":
			if l.traps == nil || l.traps.Len() == 0 {
				fmt.Fprintf(l.out, "✗ No trap dataset loaded.\n")
				continue
			}
			for i, q := range l.traps.All() {
				fmt.Fprintf(l.out, "  %3d. %s\n", i+1, q.Question)
			}

		case "":
			fmt.Fprintf(l.out, "Please enter a topic.\n")

		default:
			return line, l.mode, true
		}
	}
}

// review renders the claim (and source, mode permitting) and collects the
// verdict. Returns false on quit or EOF.
func (l *operatorLoop) review(ctx context.Context) bool {
	view, err := l.sess.View()
	if err != nil {
		fmt.Fprintf(l.out, "✗ %v\n", err)
		return true
	}

	fmt.Fprintf(l.out, "\n── Step 2: Human Verification ──\n")
	fmt.Fprintf(l.out, "🤖 AI Generated Claim:\n  %s\n", view.Claim)

	if view.Mode == model.ModeSourceGrounded {
		fmt.Fprintf(l.out, "\n📄 Source Evidence:\n")
		if view.SourceTitle != "" {
			fmt.Fprintf(l.out, "  Title: %s\n", view.SourceTitle)
		}
		fmt.Fprintf(l.out, "  URL: %s\n", view.SourceURL)
		fmt.Fprintf(l.out, "  %s\n", view.SourceContent)
	} else {
		fmt.Fprintf(l.out, "🔒 Source context is hidden in blind mode. Verify from your own knowledge.\n")
	}

	for {
		options := "[a]pprove / re[j]ect / [s]kip"
		if view.Mode == model.ModeSourceGrounded && l.reader != nil {
			options = "[a]pprove / re[j]ect / [f]ull source / [s]kip"
		}
		fmt.Fprintf(l.out, "\nIs this claim accurate? %s: ", options)

		line, ok := l.readLine()
		if !ok {
			return false
		}

		switch strings.ToLower(line) {
		case "a", "approve":
			if err := l.sess.Approve(); err != nil {
				fmt.Fprintf(l.out, "✗ %v\n", err)
				continue
			}
			fmt.Fprintf(l.out, "✓ Result saved.\n\n")
			_ = l.sess.Next()
			return true

		case "j", "reject", "r":
			if err := l.sess.Reject(); err != nil {
				fmt.Fprintf(l.out, "✗ %v\n", err)
				continue
			}
			fmt.Fprintf(l.out, "⚠️  Hallucination recorded.\n\n")
			_ = l.sess.Next()
			return true

		case "f", "full":
			if view.Mode != model.ModeSourceGrounded || l.reader == nil {
				fmt.Fprintf(l.out, "✗ Full source is only available in source-grounded mode.\n")
				continue
			}
			text, err := l.reader.ReadPage(ctx, view.SourceURL)
			if err != nil {
				fmt.Fprintf(l.out, "✗ Could not read page (showing snippet above instead): %v\n", err)
				continue
			}
			fmt.Fprintf(l.out, "\n📖 Full source text:\n%s\n", text)

		case "s", "skip", "restart":
			l.sess.Restart()
			fmt.Fprintf(l.out, "↩ Trial discarded (not logged).\n\n")
			return true

		case "quit", "q", "exit":
			return false

		default:
			fmt.Fprintf(l.out, "Unrecognized input %q.\n", line)
		}
	}
}

func (l *operatorLoop) readLine() (string, bool) {
	if !l.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(l.in.Text()), true
}
