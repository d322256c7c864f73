package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/executors"
	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/parser"
	"github.com/yurifrl/conciliador/pkg/plan"
	"github.com/yurifrl/conciliador/pkg/service"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <file_or_dir>...",
	Short: "Import bank statements into the ledger",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		opts := service.ImportOptions{DryRun: dryRun}

		var res *service.ImportResult
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() && len(args) == 1 {
			res, err = s.processor.ProcessDirectory(ctx, args[0], opts)
			if err != nil {
				return err
			}
		} else {
			files, fromDir, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no statement files found in %v", args)
			}
			opts.SkipUnrecognized = fromDir || len(files) > 1
			if res, err = s.processor.Import(ctx, files, opts); err != nil {
				return err
			}
		}
		executors.Print(os.Stdout, res)
		if dryRun {
			fmt.Println(syncedStyle.Render("dry run, nothing was written"))
		}
		printWarnings(res.Warnings)
		return nil
	}),
}

// collectFiles reads every file argument and every supported file directly
// inside directory arguments.
func collectFiles(paths []string) ([]importer.File, bool, error) {
	var files []importer.File
	fromDir := false
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, false, err
		}
		if !info.IsDir() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, false, fmt.Errorf("failed to read file: %w", err)
			}
			files = append(files, importer.File{Name: filepath.Base(path), Data: data})
			continue
		}

		fromDir = true
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !parser.Supported(e.Name()) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(path, e.Name()))
			if err != nil {
				return nil, false, fmt.Errorf("failed to read file: %w", err)
			}
			files = append(files, importer.File{Name: e.Name(), Data: data})
		}
	}
	return files, fromDir, nil
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML plan of statements (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Plan preview for %s\n", args[0])
		p.Print(os.Stdout)
		_, err = executors.New(s.logger, s.processor).Plan(ctx, p, os.Stdout)
		return err
	}),
}

var applyCmd = &cobra.Command{
	Use:   "apply <plan_file>",
	Short: "Import every statement of a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		res, err := executors.New(s.logger, s.processor).Apply(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("Apply complete: %d added, %d already in sync\n", res.Report.MissingCount(), res.Report.InSyncCount())
		return nil
	}),
}

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Show which statement format matches a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "conciliador", Level: cfg.LogLevel()})
		registry, err := parser.LoadRegistry(cfg.Formats.File)
		if err != nil {
			return err
		}

		if list, _ := cmd.Flags().GetBool("list"); list {
			formats := registry.Formats()
			rows := make([][]string, len(formats))
			for i, f := range formats {
				rows[i] = []string{f.Name(), string(f.Kind()), f.Bank(), f.Columns().String()}
			}
			renderTable(os.Stdout, []string{"Format", "Kind", "Bank", "Columns"}, rows)
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("a file is required unless --list is given")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		p := parser.New(logger, registry)
		format, err := p.Detect(data, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s (%s, bank %q)\n", args[0], format.Name(), format.Kind(), format.Bank())
		fmt.Printf("columns: %s\n", format.Columns())

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			res, err := p.ProcessBytes(data, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("%d rows\n", len(res.Records))
			pp.Println(res.Records)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "Show what would be added without writing")
	detectCmd.Flags().Bool("dump", false, "Print every parsed record")
	detectCmd.Flags().Bool("list", false, "List the known formats instead")
}
