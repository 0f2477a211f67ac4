package interfaces

import (
	"context"

	domaintypes "safetalk/internal/domain/types"
)

// RelayStatusClient queries a relay's admin endpoint.
type RelayStatusClient interface {
	FetchStatus(ctx context.Context) (domaintypes.RoomStatus, error)
}
