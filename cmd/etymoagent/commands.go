package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/etymoagent/pkg/app"
	"github.com/japaniel/etymoagent/pkg/config"
)

func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Crawl listing pages into the corpus store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawLangs, _ := cmd.Flags().GetString("languages")
			rawLetters, _ := cmd.Flags().GetString("letters")
			langs, err := parseLanguagesFlag(rawLangs)
			if err != nil {
				return err
			}
			letters, err := parseLettersFlag(rawLetters)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := a.Ingest(ctx, langs, letters)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d entries in %d batches (%d listings, %d failed; %d pages, %d empty, %d failed, %d off-letter)\n",
					r.Entries, r.Batches, r.Listings, r.ListingsFailed, r.Pages, r.PagesEmpty, r.PagesFailed, r.PagesOffLetter)
				return nil
			})
		},
	}
	cmd.Flags().String("languages", "", "Comma-separated origin languages (default from config)")
	cmd.Flags().String("letters", "", "Letters to crawl, e.g. A-Z or A,B,C (default from config)")
	return cmd
}

func NewCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Deduplicate the corpus and drop unusable meanings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := a.Clean(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicates, nulled %d meanings, removed %d empty rows; %d remain\n",
					r.DuplicatesRemoved, r.MeaningsNulled, r.EmptyRemoved, r.Remaining)
				return nil
			})
		},
	}
}

func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the origin classifier on the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				model, eval, err := a.Train(ctx, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Trained model %s over %d languages: %s\n", model.ID, len(model.Labels), eval)
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Model output path (default from config)")
	return cmd
}

func NewEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Measure held-out accuracy of the configured strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				eval, err := a.Evaluate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Model Accuracy: %.2f\n", eval.Accuracy)
				fmt.Fprintln(cmd.OutOrStdout(), eval)
				return nil
			})
		},
	}
}

func NewQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <word>",
		Short: "Find the closest corpus word and its origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Query(ctx, args[0])
				if err != nil {
					return err
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(resp); err != nil {
					return err
				}
				if !resp.OK() {
					return fmt.Errorf("query %q: %s", args[0], resp.Error)
				}
				return nil
			})
		},
	}
}

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve origin queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the corpus as tab-separated rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("create %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}
				n, err := a.Export(ctx, w)
				if err != nil {
					return err
				}
				if out != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", n, out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	return cmd
}

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest, clean and optionally train in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			train, _ := cmd.Flags().GetBool("train")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rr, err := a.Run(ctx, train)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d entries; %d remain after cleaning\n", rr.Ingest.Entries, rr.Clean.Remaining)
				if rr.Trained {
					fmt.Fprintln(cmd.OutOrStdout(), rr.Evaluation)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("train", false, "Train the classifier after cleaning")
	return cmd
}

func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
