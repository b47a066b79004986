package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crmforge/approval-engine/internal/domain/entity"
)

// List pagination: opaque cursor over (creation time, id) descending. The
// oversized fetch (limit+1) signals has_more; the trailing row is trimmed.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func encodeCursor(t time.Time, id int64) string {
	raw := fmt.Sprintf("%d:%d", t.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", entity.ErrInvalidCursor)
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", entity.ErrInvalidCursor)
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", entity.ErrInvalidCursor)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", entity.ErrInvalidCursor)
	}

	return time.Unix(0, nanos), id, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
