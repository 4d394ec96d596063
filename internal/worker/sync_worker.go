package worker

import (
	"context"
	"fmt"
	"log/slog"

	"dealdesk/internal/amqp"
	"dealdesk/internal/core"
	"dealdesk/internal/export"
	"dealdesk/internal/storage"
)

// SyncWorker pushes deals from SQLite to the external report sheet. It is
// driven two ways: AMQP messages for near-realtime sync, and a periodic
// sweep of the pending queue as a backup for lost messages.
type SyncWorker struct {
	storage   *storage.Repository
	report    export.DealAppender
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, report export.DealAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		report:    report,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single deal sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.DealSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	deal, err := w.storage.GetDeal(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get deal from storage: %w", err)
	}

	if err := w.syncDealToReport(ctx, msg.ID, deal); err != nil {
		return fmt.Errorf("sync deal to report: %w", err)
	}

	return nil
}

// ProcessPendingDeals sweeps deals that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingDeals(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncDeals(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending deals: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending deals", "count", len(pending))

	for _, p := range pending {
		deal, err := w.storage.GetDeal(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get deal", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.syncDealToReport(ctx, p.ID, deal); err != nil {
			slog.ErrorContext(ctx, "Failed to sync deal", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending queue at worker startup. This
// recovers from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Larger batch for the startup pass.
	pending, err := w.storage.GetPendingSyncDeals(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending deals for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending deals found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending deals on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		deal, err := w.storage.GetDeal(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get deal for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.syncDealToReport(ctx, p.ID, deal); err != nil {
			slog.ErrorContext(ctx, "Failed to sync deal during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncDealToReport(ctx context.Context, id string, deal core.Deal) error {
	ref, err := w.report.AppendDeal(ctx, deal)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to report: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// Don't return error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Successfully synced deal",
		"id", id,
		"report_ref", ref,
		"title", deal.Title,
		"value_cents", deal.Value.Cents)

	return nil
}
