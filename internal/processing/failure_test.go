package processing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/domain/repo/mock"
	"github.com/nok-base/consul-sync/internal/processing"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

func TestDeadLetter(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockDeadLetterWriter(ctrl)

	pErr := pipeline.NewErrProcessingError(errRegistryDown, common.CategoryRegistryUnavailable, nil)
	errS3 := errors.New("s3 down")

	gomock.InOrder(
		writer.EXPECT().WriteDeadLetter(gomock.Any(), pErr).Return(nil).Times(1),
		writer.EXPECT().WriteDeadLetter(gomock.Any(), pErr).Return(errS3).Times(1),
	)

	dlq := processing.NewDeadLetter(writer)

	assert.NoError(t, dlq.Process(context.Background(), pErr))
	assert.ErrorIs(t, dlq.Process(context.Background(), pErr), errS3)
}
