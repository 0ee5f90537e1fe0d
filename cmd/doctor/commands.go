package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conference-rag/internal/application/search"
	"conference-rag/internal/application/setup"
	"conference-rag/internal/config"
	"conference-rag/internal/domain/entity"
	"conference-rag/internal/wire"
	"conference-rag/pkg/logger"
)

// doctorTimeout 单次诊断的整体超时
const doctorTimeout = 60 * time.Second

// loadDoctor 加载配置并装配诊断依赖；日志写 stderr，避免混入命令输出
func loadDoctor(ctx context.Context, dir string) (*config.Config, *wire.Doctor, func(), error) {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.Init("warn", "text", "stderr")

	doc, cleanup, err := wire.InitializeDoctor(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return cfg, doc, cleanup, nil
}

func checkCmd(configDir *string) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate config, test connectivity and probe search readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			cfg, doc, cleanup, err := loadDoctor(ctx, *configDir)
			if err != nil {
				return err
			}
			defer cleanup()

			report := doc.Diagnostics.Report(ctx)
			readiness := doc.Prober.Probe(ctx)

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"setup":     report,
					"readiness": readiness,
				})
			}
			printCheck(cmd.OutOrStdout(), cfg, report.Items(), readiness)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printCheck(w io.Writer, cfg *config.Config, items []setup.CheckItem, r *entity.Readiness) {
	fmt.Fprintln(w, "conference-rag doctor")
	fmt.Fprintf(w, "  Corpus backend: %s\n", cfg.Corpus.Backend)
	fmt.Fprintf(w, "  Public URL:     %s\n", cfg.App.PublicURL)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Setup:")
	for _, item := range items {
		fmt.Fprintf(w, "    %s %s\n", item.Icon, item.Text)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Searches:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, mode := range search.Modes {
		fmt.Fprintf(tw, "    %s\t%s\n", mode, readyLabel(r.Ready(mode.Capability())))
	}
	_ = tw.Flush()
}

func readyLabel(ok bool) string {
	if ok {
		return "ready"
	}
	return "not ready"
}

func searchCmd(configDir *string) *cobra.Command {
	var (
		mode       string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search with the anonymous key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := search.ParseMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q, want one of keyword, semantic, ask", mode)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			_, doc, cleanup, err := loadDoctor(ctx, *configDir)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := doc.Pipeline.Run(ctx, m, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(search.ModeKeyword), "keyword, semantic or ask")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printResult(w io.Writer, res *search.Result) {
	if res.Empty() {
		fmt.Fprintln(w, "no results")
		return
	}
	switch res.Mode {
	case search.ModeKeyword:
		for _, m := range res.Matches {
			fmt.Fprintf(w, "%s (by %s)\n", m.Title, m.Speaker)
			for _, s := range m.Sentences {
				fmt.Fprintf(w, "  - %s\n", s)
			}
		}
	case search.ModeSemantic:
		for _, t := range res.Talks {
			fmt.Fprintf(w, "%s (by %s) similarity=%.3f\n  %s\n", t.Title, t.Speaker, t.TotalSimilarity, t.Text)
		}
	case search.ModeAsk:
		fmt.Fprintln(w, res.Answer.Text)
		if len(res.Answer.Sources) > 0 {
			fmt.Fprintln(w, "\nSources:")
			for _, s := range res.Answer.Sources {
				fmt.Fprintf(w, "  - %s (by %s)\n", s.Title, s.Speaker)
			}
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
