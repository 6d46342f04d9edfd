package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/davsync/davsync/internal/webdav"
)

// LedgerGuard owns the ledger for the duration of one sync run. Acquisition
// seeds the in-memory ledger from the remote snapshot when one exists.
// Callers must arrange for Close to run on every exit path and should call
// Finalize on the success path:
//
//   - Finalize persists the ledger locally, then uploads it to the remote
//     store, propagating errors.
//   - Close, when Finalize never ran, saves locally best-effort and kicks off
//     the remote upload as a detached goroutine whose outcome is only logged.
//     The local copy is never silently lost, but the remote copy may lag
//     behind after an abrupt termination.
type LedgerGuard struct {
	ledger     *Ledger
	client     *webdav.Client
	localPath  string
	remotePath string
	finalized  bool
}

// AcquireLedger downloads the remote ledger snapshot (absence and download
// failures tolerated: the run starts from an empty ledger) and loads it into
// memory. A snapshot that exists but fails to parse is fatal.
func AcquireLedger(ctx context.Context, client *webdav.Client, localPath, remotePath string) (*LedgerGuard, error) {
	tmp, err := os.CreateTemp("", "davsync-remote-ledger-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("ledger temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := client.Download(ctx, remotePath, tmpPath); err != nil {
		slog.Warn("remote ledger unavailable, starting empty", "remote", remotePath, "error", err)
	}

	ledger, err := LoadLedger(tmpPath)
	if err != nil {
		return nil, err
	}

	return &LedgerGuard{
		ledger:     ledger,
		client:     client,
		localPath:  localPath,
		remotePath: remotePath,
	}, nil
}

// Ledger exposes the in-memory ledger for mutation during the run.
func (g *LedgerGuard) Ledger() *Ledger {
	return g.ledger
}

// Finalize persists the ledger to the local path and uploads it to the
// remote path. This is the preferred, error-propagating release path.
func (g *LedgerGuard) Finalize(ctx context.Context) error {
	if err := g.ledger.Save(g.localPath); err != nil {
		return err
	}
	if err := g.client.Upload(ctx, g.localPath, g.remotePath); err != nil {
		return fmt.Errorf("ledger upload: %w", err)
	}
	g.finalized = true
	return nil
}

// Close is the implicit teardown path, intended to run via defer. After a
// successful Finalize it is a no-op. Otherwise it saves the ledger locally
// right away and dispatches the remote upload without awaiting it, so that
// progress already recorded is preserved even when the run aborts.
func (g *LedgerGuard) Close() {
	if g.finalized {
		return
	}
	g.finalized = true

	if err := g.ledger.Save(g.localPath); err != nil {
		slog.Error("ledger save on teardown", "path", g.localPath, "error", err)
		return
	}

	go func() {
		if err := g.client.Upload(context.Background(), g.localPath, g.remotePath); err != nil {
			slog.Error("ledger upload on teardown", "remote", g.remotePath, "error", err)
		}
	}()
}
