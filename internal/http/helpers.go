package http

import (
	"strings"
	"time"

	"dealdesk/internal/core"
)

// overridable in tests
var timeNow = time.Now

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// contactName resolves a contact reference to a display name. Unlinked
// and dangling references render as a dash.
func contactName(contacts []core.Contact, id *string) string {
	if id == nil {
		return "-"
	}
	for _, c := range contacts {
		if c.ID == *id {
			return c.Name
		}
	}
	return "-"
}

// derefOr returns the pointed-to string or a fallback.
func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
