package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/parser"
	"github.com/yurifrl/conciliador/pkg/reconcile"
)

type ImportOptions struct {
	// DryRun computes the merge report without writing.
	DryRun bool
	// SkipUnrecognized records files of unknown format as failures instead of
	// aborting the whole import.
	SkipUnrecognized bool
}

type FileError struct {
	File string
	Err  error
}

type ImportResult struct {
	Batches  []*importer.Batch
	Report   *reconcile.Report
	Failures []FileError
	Warnings []Warning
	Saved    bool
}

// Import parses every file, merges the new rows into the ledger in file-name
// order and writes the ledger once. Parsing runs in parallel; merging and
// writing do not.
func (p *Processor) Import(ctx context.Context, files []importer.File, opts ImportOptions) (*ImportResult, error) {
	sorted := make([]importer.File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	batches := make([]*importer.Batch, len(sorted))
	errs := make([]error, len(sorted))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range sorted {
		g.Go(func() error {
			b, err := p.importer.Import(f)
			if err != nil {
				if opts.SkipUnrecognized && errors.Is(err, parser.ErrUnrecognizedSource) {
					errs[i] = err
					return nil
				}
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	var candidates []reconcile.Batch
	for i, b := range batches {
		if b == nil {
			p.logger.Warn("skipping unrecognized statement", "file", sorted[i].Name, "error", errs[i])
			res.Failures = append(res.Failures, FileError{File: sorted[i].Name, Err: errs[i]})
			continue
		}
		res.Batches = append(res.Batches, b)
		candidates = append(candidates, reconcile.Batch{Source: b.File, Transactions: b.Transactions})
	}

	existing, err := p.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	report, err := reconcile.Merge(existing, candidates...)
	if err != nil {
		return nil, err
	}
	res.Report = report
	p.logger.Info("merge computed", "files", len(res.Batches), "to_add", report.MissingCount(), "in_sync", report.InSyncCount(), "collapsed", report.Collapsed)

	if opts.DryRun || (report.MissingCount() == 0 && report.Collapsed == 0) {
		return res, nil
	}
	if err := p.store.SaveLedger(ctx, report.Ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	res.Saved = true
	res.Warnings = p.autoBackup(ctx)
	return res, nil
}

// ProcessDirectory imports every statement file directly inside dir.
// Files of unknown format are reported as failures.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var files []importer.File
	for _, entry := range entries {
		if entry.IsDir() || !parser.Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, importer.File{Name: entry.Name(), Data: data})
	}
	p.logger.Info("processing directory", "dir", dir, "files", len(files))

	opts.SkipUnrecognized = true
	return p.Import(ctx, files, opts)
}
