package core

import (
	"errors"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/executor"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/segment"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/meili"
)

// Sentinel errors surfaced to the transport layer. Each maps to a stable
// error code in the HTTP response; internal messages never leak to clients.
var (
	ErrQueryRequired = errors.New("core: query is required")
	ErrIndexRequired = errors.New("core: index is required")
)

// ErrorCode returns the stable client-facing code for an error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrQueryRequired):
		return "query_required"
	case errors.Is(err, ErrIndexRequired):
		return "index_required"
	case errors.Is(err, segment.ErrUnknownEngine):
		return "unknown_engine"
	case errors.Is(err, executor.ErrBackendUnreachable), errors.Is(err, meili.ErrUnreachable):
		return "backend_unreachable"
	default:
		return "internal_error"
	}
}
