package services

import (
	"context"
	"fmt"
	"log/slog"

	"dealdesk/internal/amqp"
	"dealdesk/internal/core"
	"dealdesk/internal/storage"
)

// DealService orchestrates deal mutations across SQLite and AMQP. Writes
// land in SQLite first (fast, reliable); the export sync message is
// best-effort and never fails the request.
type DealService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewDealService(storage *storage.Repository, amqpClient *amqp.Client) *DealService {
	return &DealService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateDeal saves a deal locally and publishes a sync message.
func (s *DealService) CreateDeal(ctx context.Context, d core.Deal) (string, error) {
	id, err := s.storage.CreateDeal(ctx, d)
	if err != nil {
		return "", fmt.Errorf("save deal: %w", err)
	}

	// Version 1 for a new deal.
	if err := s.publishSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deal sync message",
			"id", id, "error", err)
		// Don't fail the request - the deal is saved locally
	}

	return id, nil
}

// UpdateDeal saves changed fields and re-queues the deal for export.
func (s *DealService) UpdateDeal(ctx context.Context, d core.Deal) error {
	if err := s.storage.UpdateDeal(ctx, d); err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	if err := s.publishSync(ctx, d.ID, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deal sync message",
			"id", d.ID, "error", err)
	}
	return nil
}

// UpdateStage moves a deal through the pipeline.
func (s *DealService) UpdateStage(ctx context.Context, id string, stage core.DealStage) error {
	if err := s.storage.UpdateDealStage(ctx, id, stage); err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	if err := s.publishSync(ctx, id, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deal sync message",
			"id", id, "error", err)
	}
	return nil
}

// DeleteDeal removes a deal. Deleted deals are simply dropped from the
// report on the next full export; no tombstone message is published.
func (s *DealService) DeleteDeal(ctx context.Context, id string) error {
	if err := s.storage.DeleteDeal(ctx, id); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return nil
}

func (s *DealService) publishSync(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishDealSync(ctx, id, version)
}

// Close closes both storage and AMQP connections.
func (s *DealService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close deal service: %v", errs)
	}

	return nil
}
