package pipeline

import "context"

//go:generate mockgen -source=interfaces.go -package=mock -destination=./mock/mock_pipeline.go

type Processing[Payload any] interface {
	Process(context.Context, Payload) error
}

type ErrorProcessing Processing[ErrProcessingError]

// Source opens subscriptions on a change stream.
type Source[Payload any] interface {
	Subscribe(ctx context.Context) (Subscription[Payload], error)
}

// Subscription yields payloads in delivery order until it fails or is closed by the peer.
type Subscription[Payload any] interface {
	Next(ctx context.Context) (Payload, error)
	Close()
}

// Pipeline is a long running unit started by the Dispatcher.
type Pipeline interface {
	Start(ctx context.Context) error
}
