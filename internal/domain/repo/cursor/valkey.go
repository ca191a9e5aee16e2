package cursor

import (
	"context"
	"errors"
	"syscall"

	"github.com/valkey-io/valkey-go"

	"github.com/nok-base/consul-sync/internal/common"
)

const (
	categoryValkeyClientError = "valkey_client"

	keyPrefix = "consul-sync:cursor:"
)

// ValkeyStore keeps one resume cursor per kind, so a restarted process can resume its watches.
type ValkeyStore struct {
	client valkey.Client
}

func NewValkeyStore(client valkey.Client) ValkeyStore {
	return ValkeyStore{
		client: client,
	}
}

// GetCursor returns an empty cursor when none was stored.
func (s ValkeyStore) GetCursor(ctx context.Context, kind string) (string, error) {
	command := s.client.B().Get().Key(keyPrefix + kind).Build()

	ret, err := s.client.Do(ctx, command).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", nil
		}

		return "", s.wrapError(err, "failed to get cursor of %s", kind)
	}

	return ret, nil
}

// SetCursor stores the cursor. An empty cursor deletes the stored one.
func (s ValkeyStore) SetCursor(ctx context.Context, kind string, cursor string) error {
	command := s.client.B().Set().Key(keyPrefix + kind).Value(cursor).Build()
	if cursor == "" {
		command = s.client.B().Del().Key(keyPrefix + kind).Build()
	}

	err := s.client.Do(ctx, command).Error()
	if err != nil {
		return s.wrapError(err, "failed to set cursor of %s", kind)
	}

	return nil
}

func (s ValkeyStore) wrapError(err error, reason string, args ...interface{}) error {
	if isRetryable(err) {
		return common.NewRetryableErrProcessingError(err, categoryValkeyClientError, nil, reason, args...)
	}

	return common.NewErrProcessingError(err, categoryValkeyClientError, nil, reason, args...)
}

func isRetryable(err error) bool {
	// Network error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	vErr, isValkeyError := valkey.IsValkeyErr(err)
	if !isValkeyError {
		return false
	}

	return vErr.IsTryAgain()
}
