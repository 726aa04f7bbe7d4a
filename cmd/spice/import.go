package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

// fileParser is implemented by the importer adapters.
type fileParser interface {
	ParseFile(ctx context.Context, reader io.Reader, accountID int64) (*importer.Result, error)
}

type importOptions struct {
	accountID int64
	dryRun    bool
	sync      bool
}

func importCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import operations from bank export files",
		Long: `Import operations from OFX/QFX or CSV files exported from your bank.

Each file becomes one import batch of pending operations. Entries that cannot
be read are reported and skipped. Duplicates are detected on the next sync,
or immediately with --sync.`,
	}

	cmd.PersistentFlags().Int64VarP(&opts.accountID, "account", "a", 0, "bank account id the operations belong to")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "parse files without saving")
	cmd.PersistentFlags().BoolVar(&opts.sync, "sync", false, "run a sync after importing")

	cmd.AddCommand(importOFXCmd(&opts))
	cmd.AddCommand(importCSVCmd(&opts))

	return cmd
}

func importOFXCmd(opts *importOptions) *cobra.Command {
	var listAccounts bool

	cmd := &cobra.Command{
		Use:   "ofx <file>...",
		Short: "Import OFX or QFX statements",
		Long: `Import operations from OFX or QFX (Quicken) files.

Examples:
  spice import ofx --account 1 statement.ofx
  spice import ofx --account 2 --sync ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.NewOFXParser()
			if listAccounts {
				return printOFXAccounts(cmd, parser, args)
			}
			return runImport(cmd, *opts, importer.SourceOFX, parser, args)
		},
	}

	cmd.Flags().BoolVar(&listAccounts, "list-accounts", false, "list account numbers found in the files without importing")

	return cmd
}

func importCSVCmd(opts *importOptions) *cobra.Command {
	var (
		delimiter  string
		dateLayout string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "csv <file>...",
		Short: "Import CSV exports",
		Long: `Import operations from CSV files.

Column positions and the date layout come from the import.csv section of the
config file and may be overridden with flags.

Examples:
  spice import csv --account 1 export.csv
  spice import csv --account 1 --delimiter ";" --date-layout 02/01/2006 export.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvConfig := currentConfig().CSV
			if csvConfig == (importer.CSVConfig{}) {
				csvConfig = importer.DefaultCSVConfig()
			}
			if cmd.Flags().Changed("delimiter") {
				csvConfig.Delimiter = delimiter
			}
			if cmd.Flags().Changed("date-layout") {
				csvConfig.DateLayout = dateLayout
			}
			if noHeader {
				csvConfig.HasHeader = false
			}

			parser, err := importer.NewCSVParser(csvConfig)
			if err != nil {
				return err
			}
			return runImport(cmd, *opts, importer.SourceCSV, parser, args)
		},
	}

	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "field delimiter")
	cmd.Flags().StringVar(&dateLayout, "date-layout", "2006-01-02", "Go time layout of the date column")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "the first row holds data")

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions, source string, parser fileParser, files []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.accountID <= 0 {
		return errors.New("--account must be a positive bank account id")
	}

	var l *ledger.Ledger
	if !opts.dryRun {
		var err error
		if l, err = openLedger(ctx); err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
	}

	var imported, skipped int
	for _, path := range files {
		result, err := parseImportFile(ctx, cmd.ErrOrStderr(), parser, path, opts.accountID)
		if err != nil {
			return err
		}

		for _, row := range result.Skipped {
			common.LogWarn("Skipped entry", common.Fields{"file": path, "line": row.Line, "error": row.Err})
		}
		skipped += len(result.Skipped)

		if len(result.Records) == 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s: no operations found", filepath.Base(path))))
			continue
		}

		if opts.dryRun {
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s: %d operation(s) would be imported", filepath.Base(path), len(result.Records))))
			imported += len(result.Records)
			continue
		}

		batch, err := l.ImportOperations(ctx, source, result.Records)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		imported += len(batch.IDs)
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("✓ %s: imported %d operation(s) in batch %s",
			filepath.Base(path), len(batch.IDs), batch.BatchID)))
	}

	summary := fmt.Sprintf("Files: %d\nOperations: %d\nSkipped entries: %d", len(files), imported, skipped)
	if opts.dryRun {
		summary += "\n\n" + cli.FormatWarning("Dry run mode - nothing was saved")
	}
	fmt.Fprintln(out, cli.RenderBox(cli.SpiceIcon+" Import summary", summary))

	if opts.sync && !opts.dryRun && imported > 0 {
		result, err := cli.RunSync(ctx, out, l.Sync)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Fprintln(out, cli.RenderSyncResult(result))
	}

	return nil
}

func parseImportFile(ctx context.Context, progress io.Writer, parser fileParser, path string, accountID int64) (*importer.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}

	reader, finish := cli.ProgressReader(file, size, progress, filepath.Base(path))
	result, err := parser.ParseFile(ctx, reader, accountID)
	finish()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return result, nil
}

func printOFXAccounts(cmd *cobra.Command, parser *importer.OFXParser, files []string) error {
	for _, path := range files {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		accounts, err := parser.Accounts(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(filepath.Base(path)))
		for _, acct := range accounts {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", acct)
		}
	}
	return nil
}
