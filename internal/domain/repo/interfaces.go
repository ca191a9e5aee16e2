package repo

import (
	"context"

	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

//go:generate mockgen -source=interfaces.go -package=mock -destination=./mock/mock_repo.go

// Registry is the external service registry. Both operations are idempotent and safe for
// concurrent use by every kind's worker.
type Registry interface {
	Upsert(ctx context.Context, record entity.RegistryRecord) error
	Remove(ctx context.Context, id string) error
}

type CursorReader interface {
	GetCursor(ctx context.Context, kind string) (string, error)
}

type CursorWriter interface {
	SetCursor(ctx context.Context, kind string, cursor string) error
}

// CursorStore keeps the last observed position of each kind's change stream.
type CursorStore interface {
	CursorReader
	CursorWriter
}

type DeadLetterWriter interface {
	WriteDeadLetter(ctx context.Context, pErr pipeline.ErrProcessingError) error
}

type MutationWriter interface {
	WriteMutation(ctx context.Context, mutation entity.Mutation) error
}
