package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a process-unique id: base36 milliseconds plus a random suffix.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}
