// Package conversation defines the per-session turn history consumed by the
// entity extractor and maintained by the context store.
package conversation

import (
	"time"

	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// Turn records one completed request/response cycle. Turns are write-once:
// the store never mutates an appended turn, which lets carry-over logic
// ignore rollback concerns.
type Turn struct {
	ID        string
	SessionID string
	TenantID  string
	Timestamp time.Time
	RawText   string
	Spec      spec.Spec
	ResultIDs []string
}
