package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/etymoagent/pkg/app"
	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "etymoagent",
		Short:         "Build an etymology corpus and infer word origins",
		Long:          `Crawls a lexical site for English words derived from other languages, stores them in SQLite and answers "where does this word come from" queries.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to YAML config (default $"+config.PathEnv+")")

	rootCmd.AddCommand(
		NewIngestCmd(),
		NewCleanCmd(),
		NewTrainCmd(),
		NewEvaluateCmd(),
		NewQueryCmd(),
		NewServeCmd(),
		NewExportCmd(),
		NewRunCmd(),
		NewConfigCmd(),
	)
	return rootCmd
}

// withApp loads the configuration named by --config, builds the App and
// hands it to fn. The App is closed when fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg.Log)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func parseLanguagesFlag(raw string) ([]etymology.Language, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	langs, err := etymology.ParseLanguages(strings.Split(raw, ","))
	if err != nil {
		return nil, fmt.Errorf("--languages: %w", err)
	}
	return langs, nil
}

func parseLettersFlag(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	letters, err := config.ParseLetters(raw)
	if err != nil {
		return nil, fmt.Errorf("--letters: %w", err)
	}
	return letters, nil
}
