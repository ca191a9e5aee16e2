package pipeline_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/nok-base/consul-sync/pkg/pipeline"
	"github.com/nok-base/consul-sync/pkg/pipeline/mock"
)

var _ = Describe("Testing Dispatcher with 2 pipelines", func() {
	var first, second *mock.MockPipeline
	var dispatcher pipeline.Dispatcher

	var ctx context.Context
	var cancel context.CancelFunc

	waitForCancellation := func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	}

	BeforeEach(func() {
		ctrl := gomock.NewController(GinkgoT())

		first = mock.NewMockPipeline(ctrl)
		second = mock.NewMockPipeline(ctrl)

		dispatcher = pipeline.NewDispatcher(first, second).WithLogger(GinkgoLogr)

		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	When("both pipelines run until shutdown", func() {
		BeforeEach(func() {
			first.EXPECT().Start(gomock.Any()).DoAndReturn(waitForCancellation).Times(1)
			second.EXPECT().Start(gomock.Any()).DoAndReturn(waitForCancellation).Times(1)
		})

		It("should wait for both and report a clean shutdown", func() {
			done := make(chan error, 1)

			go func() {
				done <- dispatcher.Start(ctx)
			}()

			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

			cancel()

			var err error

			Eventually(done).Should(Receive(&err))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("one pipeline stops with an error", func() {
		BeforeEach(func() {
			first.EXPECT().Start(gomock.Any()).Return(errOneError).Times(1)
			second.EXPECT().Start(gomock.Any()).DoAndReturn(waitForCancellation).Times(1)
		})

		It("should keep the other one running and return the error", func() {
			done := make(chan error, 1)

			go func() {
				done <- dispatcher.Start(ctx)
			}()

			By("not cancelling the remaining pipeline")
			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

			cancel()

			var err error

			Eventually(done).Should(Receive(&err))
			Expect(err).To(MatchError(errOneError))
		})
	})
})
