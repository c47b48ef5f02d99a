package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Cache is the fresh-result cache shared by provider lookups within a
// refresh cycle. Implementations must support concurrent Get/Set;
// plain key-value semantics are enough, no transactions.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a stable cache key from an operation name and its
// parameters. Parameters are sorted so the same call always hashes to
// the same key regardless of map iteration order.
func Key(op string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(op)
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	sum := sha1.Sum([]byte(b.String()))
	return op + ":" + hex.EncodeToString(sum[:])
}
