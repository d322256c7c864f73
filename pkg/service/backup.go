package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/yurifrl/conciliador/pkg/blob"
	"github.com/yurifrl/conciliador/pkg/store"
)

var (
	ErrBackupDisabled    = errors.New("backups are disabled")
	ErrBackupUnsupported = errors.New("store is not file backed")
)

func (p *Processor) files() ([]store.File, error) {
	if p.backup == nil {
		return nil, ErrBackupDisabled
	}
	fb, ok := p.store.(store.FileBacked)
	if !ok {
		return nil, ErrBackupUnsupported
	}
	return fb.Files(), nil
}

// Backup uploads every local store file that exists and returns one message
// per upload.
func (p *Processor) Backup(ctx context.Context) ([]string, error) {
	files, err := p.files()
	if err != nil {
		return nil, err
	}
	var msgs []string
	var errs []error
	for _, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			p.logger.Debug("skipping backup of missing file", "file", f.Path)
			continue
		}
		msg, err := p.backup.Upload(ctx, f.Path, path.Clean(f.Name))
		if err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", f.Name, err))
			continue
		}
		p.logger.Debug("backed up", "file", f.Name, "msg", msg)
		msgs = append(msgs, msg)
	}
	return msgs, errors.Join(errs...)
}

// autoBackup runs after a successful write. Failures never undo the write;
// they come back as warnings.
func (p *Processor) autoBackup(ctx context.Context) []Warning {
	if p.backup == nil {
		return nil
	}
	if _, err := p.Backup(ctx); err != nil {
		if errors.Is(err, ErrBackupUnsupported) {
			return nil
		}
		p.logger.Warn("backup failed", "error", err)
		return []Warning{{Op: "backup", Err: err}}
	}
	return nil
}

// Restore downloads the store files from backup. It runs at most once per
// session: when alreadyAttempted is true nothing happens. restored reports
// whether at least one file came back.
func (p *Processor) Restore(ctx context.Context, alreadyAttempted bool) (restored bool, msgs []string, err error) {
	if alreadyAttempted {
		return false, nil, nil
	}
	files, err := p.files()
	if err != nil {
		return false, nil, err
	}
	var errs []error
	for _, f := range files {
		msg, err := p.backup.Download(ctx, path.Clean(f.Name), f.Path)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrEmptyObject) {
				p.logger.Warn("nothing to restore", "file", f.Name, "error", err)
				continue
			}
			errs = append(errs, fmt.Errorf("download %s: %w", f.Name, err))
			continue
		}
		p.logger.Info("restored", "file", f.Name, "msg", msg)
		msgs = append(msgs, msg)
		restored = true
	}
	return restored, msgs, errors.Join(errs...)
}

// EnsureLedger is called at session start. A missing or corrupt ledger
// triggers one restore attempt; a ledger that is still corrupt afterwards is
// a hard error. The returned flag is the new "restore attempted" state to
// pass on the next call.
func (p *Processor) EnsureLedger(ctx context.Context, restoreAttempted bool) (bool, error) {
	_, err := p.store.LoadLedger(ctx)
	if err == nil {
		return restoreAttempted, nil
	}
	corrupt := errors.Is(err, store.ErrCorruptLedger)
	if !corrupt && !errors.Is(err, store.ErrNotExist) {
		return restoreAttempted, fmt.Errorf("load ledger: %w", err)
	}
	if restoreAttempted {
		if corrupt {
			return true, err
		}
		return true, nil
	}

	_, _, rerr := p.Restore(ctx, false)
	switch {
	case errors.Is(rerr, ErrBackupDisabled), errors.Is(rerr, ErrBackupUnsupported):
		if corrupt {
			return true, err
		}
		return true, nil
	case rerr != nil:
		p.logger.Warn("restore failed", "error", rerr)
	}

	if _, err := p.store.LoadLedger(ctx); err != nil && !errors.Is(err, store.ErrNotExist) {
		return true, err
	}
	return true, nil
}
