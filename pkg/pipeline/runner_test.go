package pipeline_test

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/nok-base/consul-sync/pkg/pipeline"
	"github.com/nok-base/consul-sync/pkg/pipeline/mock"
)

var _ = Describe("Testing Runner", func() {
	var ctrl *gomock.Controller

	var source *mock.MockSource[Data]
	var proc *mock.MockProcessing[Data]
	var errProc *mock.MockErrorProcessing

	var fakeClock clockwork.FakeClock
	var recorder *StateRecorder
	var runner pipeline.Runner[Data]

	var ctx context.Context
	var cancel context.CancelFunc

	blockUntilCancelled := func(ctx context.Context) (Data, error) {
		<-ctx.Done()

		return Data{}, ctx.Err()
	}

	start := func() chan error {
		done := make(chan error, 1)

		go func() {
			defer GinkgoRecover()

			done <- runner.Start(ctx)
		}()

		return done
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())

		source = mock.NewMockSource[Data](ctrl)
		proc = mock.NewMockProcessing[Data](ctrl)
		errProc = mock.NewMockErrorProcessing(ctrl)

		fakeClock = clockwork.NewFakeClock()
		recorder = &StateRecorder{}

		runner = pipeline.NewRunner[Data](source, proc, errProc, pipeline.RunnerConfig{Name: "test"}).
			WithClock(fakeClock).
			WithStateObserver(recorder.Observe).
			WithLogger(GinkgoLogr)

		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	When("the subscription streams payloads", func() {
		BeforeEach(func() {
			sub := mock.NewMockSubscription[Data](ctrl)

			source.EXPECT().Subscribe(gomock.Any()).Return(sub, nil).Times(1)
			sub.EXPECT().Close().Times(1)

			gomock.InOrder(
				sub.EXPECT().Next(gomock.Any()).Return(Data{ID: 1}, nil),
				sub.EXPECT().Next(gomock.Any()).Return(Data{ID: 2}, nil),
				sub.EXPECT().Next(gomock.Any()).DoAndReturn(blockUntilCancelled),
			)

			gomock.InOrder(
				proc.EXPECT().Process(gomock.Any(), Data{ID: 1}).Return(nil),
				proc.EXPECT().Process(gomock.Any(), Data{ID: 2}).DoAndReturn(func(context.Context, Data) error {
					cancel()

					return nil
				}),
			)
		})

		It("should process them in order and stop on cancellation", func() {
			var err error

			Eventually(start()).Should(Receive(&err))
			Expect(err).To(MatchError(context.Canceled))

			Expect(recorder.States()).To(Equal([]pipeline.State{
				pipeline.StateConnecting,
				pipeline.StateStreaming,
				pipeline.StateStopped,
			}))
		})
	})

	When("a payload fails to be processed", func() {
		errProcessing := pipeline.NewErrProcessingError(errOneError, "registry_unavailable", nil)

		BeforeEach(func() {
			sub := mock.NewMockSubscription[Data](ctrl)

			source.EXPECT().Subscribe(gomock.Any()).Return(sub, nil).Times(1)
			sub.EXPECT().Close().Times(1)

			gomock.InOrder(
				sub.EXPECT().Next(gomock.Any()).Return(Data{ID: 1}, nil),
				sub.EXPECT().Next(gomock.Any()).Return(Data{ID: 2}, nil),
				sub.EXPECT().Next(gomock.Any()).DoAndReturn(blockUntilCancelled),
			)

			gomock.InOrder(
				proc.EXPECT().Process(gomock.Any(), Data{ID: 1}).Return(errProcessing),
				proc.EXPECT().Process(gomock.Any(), Data{ID: 2}).DoAndReturn(func(context.Context, Data) error {
					cancel()

					return nil
				}),
			)

			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				Expect(pErr.Category).To(Equal("registry_unavailable"))

				return nil
			}).Times(1)
		})

		It("should hand the error to the error processing and keep streaming", func() {
			var err error

			Eventually(start()).Should(Receive(&err))
			Expect(err).To(MatchError(context.Canceled))
			Expect(recorder.States()).NotTo(ContainElement(pipeline.StateBackoff))
		})
	})

	When("the subscription cannot be opened", func() {
		BeforeEach(func() {
			sub := mock.NewMockSubscription[Data](ctrl)

			gomock.InOrder(
				source.EXPECT().Subscribe(gomock.Any()).Return(nil, pipeline.NewErrAPIError(errOneError)),
				source.EXPECT().Subscribe(gomock.Any()).Return(sub, nil),
			)

			sub.EXPECT().Close().Times(1)
			gomock.InOrder(
				sub.EXPECT().Next(gomock.Any()).Return(Data{ID: 1}, nil),
				sub.EXPECT().Next(gomock.Any()).DoAndReturn(blockUntilCancelled),
			)

			proc.EXPECT().Process(gomock.Any(), Data{ID: 1}).DoAndReturn(func(context.Context, Data) error {
				cancel()

				return nil
			})
		})

		It("should wait exactly the fixed backoff before reconnecting", func() {
			done := start()

			fakeClock.BlockUntil(1)
			Expect(recorder.States()).To(Equal([]pipeline.State{pipeline.StateConnecting, pipeline.StateBackoff}))

			By("not reconnecting before the backoff elapsed")
			fakeClock.Advance(pipeline.DefaultBackoff - time.Millisecond)
			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

			By("reconnecting once it elapsed")
			fakeClock.Advance(time.Millisecond)

			var err error

			Eventually(done).Should(Receive(&err))
			Expect(err).To(MatchError(context.Canceled))
			Expect(recorder.States()).To(Equal([]pipeline.State{
				pipeline.StateConnecting,
				pipeline.StateBackoff,
				pipeline.StateConnecting,
				pipeline.StateStreaming,
				pipeline.StateStopped,
			}))
		})
	})

	When("the subscription fails mid-stream", func() {
		BeforeEach(func() {
			first := mock.NewMockSubscription[Data](ctrl)
			second := mock.NewMockSubscription[Data](ctrl)

			gomock.InOrder(
				source.EXPECT().Subscribe(gomock.Any()).Return(first, nil),
				source.EXPECT().Subscribe(gomock.Any()).Return(second, nil),
			)

			first.EXPECT().Close().Times(1)
			gomock.InOrder(
				first.EXPECT().Next(gomock.Any()).Return(Data{ID: 1}, nil),
				first.EXPECT().Next(gomock.Any()).Return(Data{}, pipeline.ErrSubscriptionClosed),
			)

			second.EXPECT().Close().Times(1)
			gomock.InOrder(
				second.EXPECT().Next(gomock.Any()).Return(Data{ID: 2}, nil),
				second.EXPECT().Next(gomock.Any()).DoAndReturn(blockUntilCancelled),
			)

			gomock.InOrder(
				proc.EXPECT().Process(gomock.Any(), Data{ID: 1}).Return(nil),
				proc.EXPECT().Process(gomock.Any(), Data{ID: 2}).DoAndReturn(func(context.Context, Data) error {
					cancel()

					return nil
				}),
			)
		})

		It("should resume delivering payloads after the backoff", func() {
			done := start()

			fakeClock.BlockUntil(1)
			fakeClock.Advance(pipeline.DefaultBackoff)

			var err error

			Eventually(done).Should(Receive(&err))
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	When("the subscription panics", func() {
		BeforeEach(func() {
			sub := mock.NewMockSubscription[Data](ctrl)

			gomock.InOrder(
				source.EXPECT().Subscribe(gomock.Any()).Return(sub, nil),
				source.EXPECT().Subscribe(gomock.Any()).DoAndReturn(func(context.Context) (pipeline.Subscription[Data], error) {
					cancel()

					return nil, context.Canceled
				}),
			)

			sub.EXPECT().Close().Times(1)
			sub.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (Data, error) {
				panic(panicReason)
			})
		})

		It("should recover and go through backoff", func() {
			done := start()

			fakeClock.BlockUntil(1)
			fakeClock.Advance(pipeline.DefaultBackoff)

			var err error

			Eventually(done).Should(Receive(&err))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(recorder.States()).To(ContainElement(pipeline.StateBackoff))
		})
	})
})
