package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chainlist/internal"
	"chainlist/internal/fetch"
	"chainlist/internal/pipeline"
)

func newFetchCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "chains:fetch",
		Short: "Clone or download the chains repository into CHAINS_LOCAL_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sync(cmd, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetch done mode=%s revision=%s skipped=%t path=%s\n", res.Mode, res.Revision, res.Skipped, res.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "fetch even when the checkout is fresh")
	return cmd
}

func newExtractCommand(a *app) *cobra.Command {
	var dir, out, sortOrder string
	cmd := &cobra.Command{
		Use:   "chains:extract",
		Short: "Extract name = chainId lines from the descriptor directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" {
				a.cfg.ResultPath = out
			}
			if sortOrder != "" {
				a.cfg.SortOrder = strings.ToLower(strings.TrimSpace(sortOrder))
			}
			return a.extract(cmd, a.dataDir(dir), "")
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "descriptor directory (default CHAINS_LOCAL_PATH/CHAINS_DATA_SUBDIR)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default RESULT_PATH)")
	cmd.Flags().StringVar(&sortOrder, "sort", "", "none|id|name (default SORT_ORDER)")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the chains repository and write the result file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sync(cmd, force)
			if err != nil {
				return err
			}
			return a.extract(cmd, a.cfg.DataDir(), res.Revision)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "fetch even when the checkout is fresh")
	return cmd
}

func newLookupCommand(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "chains:lookup <id|name>",
		Short: "Print the entries matching a chain id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := pipeline.NewProcessingService(a.db, a.cfg, a.logger)
			matches, err := svc.Lookup(cmd.Context(), a.dataDir(dir), args[0])
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no chain matches %q", args[0])
			}
			for _, line := range pipeline.FormatLines(matches) {
				fmt.Fprint(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "descriptor directory (default CHAINS_LOCAL_PATH/CHAINS_DATA_SUBDIR)")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var runID int64
	var out string
	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export a recorded run as a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				return fmt.Errorf("--out is required")
			}
			if runID == 0 {
				latest, err := a.db.LatestRun()
				if err != nil {
					return err
				}
				if latest == nil {
					return fmt.Errorf("no runs recorded yet")
				}
				runID = latest.ID
			}
			entries, err := a.db.MustRunEntries(runID)
			if err != nil {
				return err
			}
			if err := pipeline.ExportEntriesToXLSX(entries, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows run=%d to %s\n", len(entries), runID, out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&runID, "run", 0, "run id (default latest)")
	cmd.Flags().StringVar(&out, "out", "", "output xlsx path")
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs:list",
		Short: "List recorded extraction runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.db.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), formatRun(run))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	return cmd
}

func (a *app) sync(cmd *cobra.Command, force bool) (fetch.SyncResult, error) {
	fetcher, err := fetch.NewFetcher(a.cfg, a.logger)
	if err != nil {
		return fetch.SyncResult{}, err
	}
	return fetch.NewSyncService(a.db, fetcher, a.cfg, a.logger).Sync(cmd.Context(), force)
}

func (a *app) extract(cmd *cobra.Command, dir, revision string) error {
	if revision == "" {
		revision = fetch.NewSyncService(a.db, nil, a.cfg, a.logger).Revision()
	}
	res, err := pipeline.NewProcessingService(a.db, a.cfg, a.logger).Run(cmd.Context(), dir, revision)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "extract done run=%d entries=%d output=%s trace=%s\n", res.RunID, len(res.Entries), res.OutputPath, res.TraceID)
	return nil
}

func (a *app) dataDir(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return a.cfg.DataDir()
}

func formatRun(run internal.RunRecord) string {
	revision := run.Revision
	if revision == "" {
		revision = "-"
	}
	return "run=" + strconv.FormatInt(run.ID, 10) +
		" entries=" + strconv.Itoa(run.EntryCount) +
		" revision=" + revision +
		" duration_ms=" + strconv.FormatInt(run.DurationMs, 10) +
		" created=" + run.CreatedAt +
		" source=" + run.SourceDir
}
