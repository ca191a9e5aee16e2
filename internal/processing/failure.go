package processing

import (
	"context"

	"github.com/nok-base/consul-sync/internal/domain/repo"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

// DeadLetter is the last step of the error pipeline: it keeps the errors for later inspection.
type DeadLetter struct {
	writer repo.DeadLetterWriter
}

func NewDeadLetter(writer repo.DeadLetterWriter) DeadLetter {
	return DeadLetter{
		writer: writer,
	}
}

func (d DeadLetter) Process(ctx context.Context, pErr pipeline.ErrProcessingError) error {
	return d.writer.WriteDeadLetter(ctx, pErr)
}
