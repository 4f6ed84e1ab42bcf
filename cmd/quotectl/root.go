package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/proposalagent/backend/internal/domain"
	"github.com/proposalagent/backend/internal/infrastructure/cache"
	"github.com/proposalagent/backend/internal/infrastructure/catalog"
	"github.com/proposalagent/backend/internal/infrastructure/storage"
	"github.com/proposalagent/backend/internal/observability"
	"github.com/proposalagent/backend/internal/usecase"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	catalogPath string
	output      string
	verbose     bool

	stdin  io.Reader
	stdout io.Writer
	logger zerolog.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Match sales conversation notes to catalog products",
		Long: `quotectl runs the deterministic product matcher against a catalog file.

Use it to:
- Inspect which keyword labels a conversation triggers
- Analyze notes into matched products, bundles and suggestions
- Price a quote the same way the API does

Notes are read from a file, or from stdin when --notes is "-".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("--output must be json or yaml, got %q", opts.output)
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			opts.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      stderr,
				ServiceName: "quotectl",
			})
			return nil
		},
	}

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "data/products.csv", "catalog file (.csv or .xlsx)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newQuoteCmd(opts))
	root.AddCommand(newKeywordsCmd(opts))

	return root
}

// readNotes reads conversation notes from path, or stdin for "-"
func (o *globalOptions) readNotes(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--notes is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(o.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(data), nil
}

// newProposalService wires the engine over in-memory infrastructure for one run
func (o *globalOptions) newProposalService(taxRate float64) (*usecase.ProposalService, error) {
	products, err := catalog.NewLoader(o.logger).LoadFile(o.catalogPath)
	if err != nil {
		return nil, err
	}

	analysis := usecase.NewAnalysisService(
		cache.NewMemoryCache(0),
		nil,
		usecase.AnalysisServiceConfig{
			Matching: usecase.MatchConfig{EnableDebugLogging: o.verbose},
		},
		nil,
		o.logger,
	)

	return usecase.NewProposalService(
		analysis,
		catalog.NewMemoryCatalog(products),
		storage.NewMemoryProposalRepository(),
		usecase.ProposalServiceConfig{TaxRate: taxRate},
		nil,
		o.logger,
	), nil
}

func (o *globalOptions) write(v interface{}) error {
	if o.output == "yaml" {
		enc := yaml.NewEncoder(o.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(toPlain(v)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// toPlain round-trips through JSON so YAML output uses the same field names as the API
func toPlain(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var plain interface{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return v
	}
	return plain
}

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var (
		notesPath string
		customer  string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze conversation notes into matched products",
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := opts.readNotes(notesPath)
			if err != nil {
				return err
			}

			svc, err := opts.newProposalService(usecase.DefaultTaxRate)
			if err != nil {
				return err
			}

			result, err := svc.Analyze(context.Background(), &domain.AnalyzeRequest{
				ConversationNotes: notes,
				CustomerName:      customer,
			})
			if err != nil {
				return err
			}
			return opts.write(result)
		},
	}

	cmd.Flags().StringVar(&notesPath, "notes", "", `conversation notes file ("-" for stdin)`)
	cmd.Flags().StringVar(&customer, "customer", "", "customer name (extracted from notes when empty)")
	return cmd
}

func newQuoteCmd(opts *globalOptions) *cobra.Command {
	var (
		notesPath string
		sequence  int
		taxRate   float64
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Generate a priced proposal from conversation notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sequence < 1 {
				return fmt.Errorf("--sequence must be at least 1")
			}
			if taxRate < 0 || taxRate >= 1 {
				return fmt.Errorf("--tax-rate must be in [0, 1), got %v", taxRate)
			}

			notes, err := opts.readNotes(notesPath)
			if err != nil {
				return err
			}

			svc, err := opts.newProposalService(taxRate)
			if err != nil {
				return err
			}

			result, err := svc.Generate(context.Background(), &domain.GenerateRequest{
				SequenceNumber:    sequence,
				ConversationNotes: notes,
			})
			if err != nil {
				if result != nil {
					// Still show what was understood
					_ = opts.write(result)
				}
				return err
			}
			return opts.write(result)
		},
	}

	cmd.Flags().StringVar(&notesPath, "notes", "", `conversation notes file ("-" for stdin)`)
	cmd.Flags().IntVar(&sequence, "sequence", 1, "proposal sequence number")
	cmd.Flags().Float64Var(&taxRate, "tax-rate", usecase.DefaultTaxRate, "flat tax rate applied to the subtotal")
	return cmd
}

type keywordReport struct {
	Labels       []string `json:"labels"`
	Requirements []string `json:"requirements"`
	MaxScore     int      `json:"maxScore"`
}

func newKeywordsCmd(opts *globalOptions) *cobra.Command {
	var notesPath string

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the keyword labels a conversation triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := opts.readNotes(notesPath)
			if err != nil {
				return err
			}

			keywords := usecase.ExtractKeywords(notes)
			report := keywordReport{
				Labels:       keywords.Labels(),
				Requirements: []string{},
				MaxScore:     usecase.MaxPossibleScore(keywords),
			}
			for _, label := range report.Labels {
				if p, ok := usecase.LookupPattern(label); ok {
					report.Requirements = append(report.Requirements, p.Description)
				}
			}
			return opts.write(report)
		},
	}

	cmd.Flags().StringVar(&notesPath, "notes", "", `conversation notes file ("-" for stdin)`)
	return cmd
}
