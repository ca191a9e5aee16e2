package common_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

var errRoot = errors.New("connection refused")

func TestNewRetryableErrProcessingError(t *testing.T) {
	err := common.NewRetryableErrProcessingError(errRoot, common.CategoryRegistryUnavailable, nil, "failed to register %s", "r1")

	assert.ErrorIs(t, err, pipeline.ErrRetryableError)
	assert.ErrorIs(t, err, errRoot)
	assert.Equal(t, common.CategoryRegistryUnavailable, err.Category)
	assert.Contains(t, err.Error(), "failed to register r1")
}

func TestCloseAll(t *testing.T) {
	var order []string

	closer := func(name string, err error) common.CloseFunc {
		return func(context.Context) error {
			order = append(order, name)

			return err
		}
	}

	err := common.CloseAll(context.Background(), closer("first", nil), nil, closer("second", errRoot))

	assert.ErrorIs(t, err, errRoot)
	assert.Equal(t, []string{"second", "first"}, order)
}
