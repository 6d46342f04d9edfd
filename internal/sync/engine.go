package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davsync/davsync/internal/config"
	"github.com/davsync/davsync/internal/utils"
	"github.com/davsync/davsync/internal/webdav"
)

// ProgressFunc receives a tick after each processed file (uploaded or
// skipped). done counts from 1 to total.
type ProgressFunc func(done, total int)

// Engine runs one-way mirror syncs: it walks the configured folders, decides
// per file whether the remote copy is stale, and uploads through the WebDAV
// client. Files are processed strictly one at a time; the first fatal error
// aborts the whole run.
type Engine struct {
	cfg      *config.Config
	client   *webdav.Client
	mode     Mode
	progress ProgressFunc
}

// NewEngine creates a sync engine. progress may be nil.
func NewEngine(cfg *config.Config, client *webdav.Client, progress ProgressFunc) *Engine {
	mode := ModeFull
	if cfg.PseudoHash {
		mode = ModePseudo
	}
	return &Engine{
		cfg:      cfg,
		client:   client,
		mode:     mode,
		progress: progress,
	}
}

// fileEntry is one candidate file under a configured folder.
type fileEntry struct {
	absPath string
	relPath string // slash-separated, relative to the folder root
}

// folderPlan is the ordered upload plan for one existing folder.
type folderPlan struct {
	folder  string
	entries []fileEntry
}

// Run executes one sync. The ledger guard is released on every exit path;
// the explicit finalize on success propagates persistence errors, while an
// abort still preserves recorded progress through the guard's teardown.
func (e *Engine) Run(ctx context.Context) error {
	guard, err := AcquireLedger(ctx, e.client, e.cfg.LedgerPath, e.cfg.RemoteLedgerPath)
	if err != nil {
		return err
	}
	defer guard.Close()

	plans, total, err := e.collect()
	if err != nil {
		return err
	}

	slog.Info("sync starting", "folders", len(plans), "files", total, "mode", e.mode.String())

	done := 0
	tick := func() {
		done++
		if e.progress != nil {
			e.progress(done, total)
		}
	}

	ledger := guard.Ledger()
	ledgerName := filepath.Base(e.cfg.LedgerPath)

	for _, plan := range plans {
		for _, entry := range plan.entries {
			// The ledger itself must never be uploaded as sync content.
			if filepath.Base(entry.absPath) == ledgerName {
				tick()
				continue
			}

			fingerprint, err := Fingerprint(entry.absPath, e.mode)
			if err != nil {
				return err
			}

			remotePath := remotePathFor(e.cfg.TargetDir, entry.relPath)

			exists, err := e.client.Exists(ctx, remotePath)
			if err != nil {
				return err
			}

			if stored, ok := ledger.Get(e.mode, remotePath); ok && exists && stored == fingerprint {
				slog.Debug("unchanged", "remote", remotePath)
				tick()
				continue
			}

			if err := e.client.Upload(ctx, entry.absPath, remotePath); err != nil {
				return err
			}
			ledger.Set(e.mode, remotePath, fingerprint)
			tick()
		}
	}

	return guard.Finalize(ctx)
}

// collect enumerates the upload candidates of every configured folder.
// Missing folders are skipped with a warning; excluded files are dropped
// before they reach the progress totals. Within a folder, deeper files come
// first so directory-creation failures on nested paths surface early.
func (e *Engine) collect() ([]folderPlan, int, error) {
	ignore := newIgnoreList(e.cfg.Exclude)

	var plans []folderPlan
	total := 0

	for _, folder := range e.cfg.Folders {
		if !utils.DirExists(folder) {
			slog.Warn("folder does not exist, skipping", "folder", folder)
			continue
		}

		var entries []fileEntry
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(folder, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if ignore.Match(rel) {
				slog.Debug("excluded", "folder", folder, "path", rel)
				return nil
			}

			entries = append(entries, fileEntry{absPath: path, relPath: rel})
			return nil
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walk %q: %w", folder, err)
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return pathDepth(entries[i].relPath) > pathDepth(entries[j].relPath)
		})

		plans = append(plans, folderPlan{folder: folder, entries: entries})
		total += len(entries)
	}

	return plans, total, nil
}

func pathDepth(relPath string) int {
	return strings.Count(relPath, "/") + 1
}

// remotePathFor joins the optional target-directory prefix and the relative
// path with a single slash.
func remotePathFor(targetDir, relPath string) string {
	if targetDir == "" {
		return relPath
	}
	return strings.TrimRight(targetDir, "/") + "/" + relPath
}
