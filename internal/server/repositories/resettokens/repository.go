package resettokens

import (
	"context"
	"time"
)

// Repository tracks redeemed password-reset tokens so that a token is good
// for exactly one password change within its validity window.
type Repository interface {
	// MarkUsed records the digest of a redeemed token. Recording the same
	// digest twice fails with common.ErrTokenConsumed.
	MarkUsed(ctx context.Context, digest string, ttl time.Duration) error

	// PurgeExpired deletes records whose tokens can no longer be redeemed
	// anyway, returning the number of rows removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
