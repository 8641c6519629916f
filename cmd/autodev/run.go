package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/agents"
	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
	"github.com/ChamsBouzaiene/autodev/internal/history"
	"github.com/ChamsBouzaiene/autodev/internal/logging"
	"github.com/ChamsBouzaiene/autodev/internal/pipeline"
	"github.com/ChamsBouzaiene/autodev/internal/providers"
	"github.com/ChamsBouzaiene/autodev/internal/session"
)

type runFlags struct {
	projectRoot string
	yes         bool
	raw         bool
	showPartial bool
	noHistory   bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [description...]",
		Short: "Generate, build and verify a backend from a description",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPipeline(ctx, cmd, f, args)
		},
	}
	cmd.Flags().StringVar(&f.projectRoot, "project-root", "", "generated project directory (overrides project.root)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "run generated code without asking")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "use the description as the project goal as-is")
	cmd.Flags().BoolVar(&f.showPartial, "show-partial", true, "print the fact sheet of a failed run")
	cmd.Flags().BoolVar(&f.noHistory, "no-history", false, "do not record the run")
	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, f runFlags, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer logger.Sync()

	description, err := readDescription(args, os.Stdin, cmd.OutOrStdout(), isatty.IsTerminal(os.Stdin.Fd()))
	if err != nil {
		return err
	}

	llm, model, err := providers.NewLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	b := pipeline.NewBuilder().
		WithConfig(cfg).
		WithLLM(llm, model).
		WithLogger(logger).
		WithHooks(engine.NewConsoleHook())
	if cfg.Pipeline.AutoConfirm {
		b = b.WithConfirmer(agents.AutoConfirmer{})
	}

	if !cfg.Storage.Disabled {
		db, err := openHistory(ctx, cfg.Storage.HistoryDB)
		if err != nil {
			logger.Warn("run history disabled", zap.Error(err))
		} else {
			defer db.Close()
			b = b.WithHistory(db)
		}
		b = b.WithSessions(session.NewStore(cfg.Storage.SessionsDir))
	}

	driver, err := b.Build()
	if err != nil {
		return err
	}

	res, runErr := driver.Run(ctx, description)
	out := cmd.OutOrStdout()
	if runErr != nil {
		if f.showPartial && res != nil {
			fmt.Fprintln(out, "Partial fact sheet:")
			printFactSheet(out, res.FactSheet)
		}
		return runErr
	}

	printFactSheet(out, res.FactSheet)
	fmt.Fprintf(out, "Run %s finished in %s", res.RunID, res.Duration.Round(time.Millisecond))
	if n := len(res.Issues); n > 0 {
		fmt.Fprintf(out, " with %d failing endpoint(s)", n)
	}
	fmt.Fprintln(out)
	return nil
}

func applyRunFlags(cfg *config.Config, f runFlags) {
	if f.projectRoot != "" {
		cfg.Project.Root = f.projectRoot
	}
	if f.yes {
		cfg.Pipeline.AutoConfirm = true
	}
	if f.raw {
		cfg.Pipeline.RefineGoal = false
	}
	if f.noHistory {
		cfg.Storage.Disabled = true
	}
}

// readDescription joins args, or asks for a description on an interactive
// terminal.
func readDescription(args []string, in io.Reader, out io.Writer, interactive bool) (string, error) {
	if desc := strings.TrimSpace(strings.Join(args, " ")); desc != "" {
		return desc, nil
	}
	if !interactive {
		return "", errors.New("no description given and stdin is not a terminal")
	}

	fmt.Fprintln(out, "What webserver are we building today?")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read description: %w", err)
	}
	desc := strings.TrimSpace(line)
	if desc == "" {
		return "", errors.New("description cannot be empty")
	}
	return desc, nil
}

func openHistory(ctx context.Context, path string) (*history.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return history.NewDB(ctx, path)
}

func printFactSheet(w io.Writer, fs *factsheet.FactSheet) {
	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "failed to render fact sheet: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
