// Package export defines the outbound reporting ports. The Google Sheets
// client implements them; the sync worker consumes them.
package export

import (
	"context"

	"dealdesk/internal/core"
)

// DealAppender writes one deal row to the external report and returns a
// reference to the written range.
type DealAppender interface {
	AppendDeal(ctx context.Context, d core.Deal) (string, error)
}
