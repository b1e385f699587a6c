package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache TTLs. The cache is a pure performance layer: results must be
// identical with the cache disabled, so staleness is bounded by these.
const (
	TaskTTL    = 15 * time.Minute
	ListTTL    = 10 * time.Minute
	ResolveTTL = 10 * time.Minute
)

// ListPattern matches every task list-key variant.
const ListPattern = "tasks:list:*"

// Store is a best-effort side cache. Implementations never surface backend
// errors: a failed read is a miss, a failed write or delete is logged and
// dropped.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	// DeletePattern removes every key matching a glob-style pattern
	// (trailing-asterisk form, e.g. "tasks:list:*").
	DeletePattern(ctx context.Context, pattern string)
}

// TaskKey is the cache key for a single task.
func TaskKey(id string) string {
	return "tasks:item:" + id
}

// ListKey derives a deterministic key from the full filter/pagination tuple.
func ListKey(status, priority, category, assignee, q string, limit, offset int) string {
	return fmt.Sprintf("tasks:list:%s:%s:%s:%s:%s:%d:%d",
		status, priority, category, assignee, q, limit, offset)
}

// ResolveKey is the cache key for an identifier resolution. Emails are
// matched case-insensitively so they are folded; UUIDs and external auth
// UIDs are opaque case-sensitive strings and must not collide.
func ResolveKey(identifier string) string {
	if strings.Contains(identifier, "@") {
		return "users:resolve:" + strings.ToLower(identifier)
	}
	return "users:resolve:" + identifier
}
