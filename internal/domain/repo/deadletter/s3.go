package deadletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/common/version"

	"github.com/nok-base/consul-sync/internal/log"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

const (
	unknownHostname = "<unknown>"
	unknownKey      = "unknown"

	keyTemplate = "<prefix>/<year>/<month>/<day>/<category>/<key>-<nanos>.json"
)

// PutObjectAPI is the subset of the s3 client used by the writer.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer stores processing errors that could not be recovered, one object per error.
type S3Writer struct {
	s3client PutObjectAPI
	clock    clockwork.Clock

	bucket string
	prefix string

	hostname string
}

func NewS3Writer(s3client PutObjectAPI, bucket string, prefix string) S3Writer {
	hostname, err := os.Hostname()
	if err != nil {
		log.Logger().Error(err, "failed to get hostname, falling backing to "+unknownHostname)

		hostname = unknownHostname
	}

	return S3Writer{
		s3client: s3client,
		clock:    clockwork.NewRealClock(),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
		hostname: hostname,
	}
}

func (w S3Writer) WithClock(clock clockwork.Clock) S3Writer {
	w.clock = clock

	return w
}

func (w S3Writer) WriteDeadLetter(ctx context.Context, pErr pipeline.ErrProcessingError) error {
	now := w.clock.Now().UTC()

	obj := w.createDeadLetter(pErr, now)

	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	key := w.computeObjectKey(pErr, now)

	params := &s3.PutObjectInput{
		Bucket:      &w.bucket,
		Key:         &key,
		Body:        bytes.NewReader(b),
		ContentType: pointer("application/json"),
	}

	_, err = w.s3client.PutObject(ctx, params)
	if err != nil {
		err = fmt.Errorf("failed to write %s in s3: %w", key, err)

		if isRetryable(err) {
			return pipeline.NewErrRetryableError(err)
		}

		return err
	}

	return nil
}

// Client faults (denied, missing bucket) won't get better with a retry
func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() != smithy.FaultClient
	}

	return true
}

func (w S3Writer) createDeadLetter(pErr pipeline.ErrProcessingError, now time.Time) DeadLetter {
	ret := DeadLetter{
		ProcessingContext: ProcessingContext{
			Component: Component{
				Branch:   version.Branch,
				Revision: version.Revision,
			},
			Time: now,
			Host: w.hostname,
		},
		Inputs: make([]Input, 0, len(pErr.AdditionalInputs)),
		Reason: Reason{
			Category: pErr.Category,
		},
	}

	if pErr.Unwrap() != nil {
		ret.Reason.Error = pErr.Error()
	}

	for _, input := range pErr.AdditionalInputs {
		ret.Inputs = append(ret.Inputs, Input(input))
	}

	return ret
}

// The resource key of the first input names the object, "/" is kept so objects group by namespace.
func (w S3Writer) computeObjectKey(pErr pipeline.ErrProcessingError, now time.Time) string {
	key := unknownKey
	if len(pErr.AdditionalInputs) > 0 && pErr.AdditionalInputs[0].Key != "" {
		key = pErr.AdditionalInputs[0].Key
	}

	category := pErr.Category
	if category == "" {
		category = pipeline.UnknownCategory
	}

	template := strings.NewReplacer(
		"<prefix>", w.prefix,
		"<year>", fmt.Sprintf("%04d", now.Year()),
		"<month>", fmt.Sprintf("%02d", now.Month()),
		"<day>", fmt.Sprintf("%02d", now.Day()),
		"<category>", category,
		"<key>", key,
		"<nanos>", fmt.Sprintf("%d", now.UnixNano()),
	)

	return template.Replace(keyTemplate)
}

func pointer[T any](v T) *T {
	return &v
}
