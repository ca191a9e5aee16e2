package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	promdto "github.com/prometheus/client_model/go"
	"go.uber.org/mock/gomock"

	"github.com/nok-base/consul-sync/pkg/pipeline"
	"github.com/nok-base/consul-sync/pkg/pipeline/mock"
)

// Test Parallel

var _ = Describe("Testing ParallelProcessing with 2 Processing", func() {
	var ctrl *gomock.Controller

	var parallel pipeline.Processing[Data]
	var proc1, proc2 *mock.MockProcessing[Data]

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())

		proc1 = mock.NewMockProcessing[Data](ctrl)
		proc2 = mock.NewMockProcessing[Data](ctrl)

		parallel = pipeline.NewParallelProcessing(proc1, proc2)
	})

	When("both processing return nil", func() {
		BeforeEach(func() {
			proc1.EXPECT().Process(gomock.Any(), data).Return(nil).Times(1)
			proc2.EXPECT().Process(gomock.Any(), data).Return(nil).Times(1)
		})

		It("should succeed", func(ctx SpecContext) {
			err := parallel.Process(ctx, data)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("one processing returns a retryable ErrProcessingError", func() {
		BeforeEach(func() {
			proc1.EXPECT().Process(gomock.Any(), data).Return(nil).Times(1)
			proc2.EXPECT().Process(gomock.Any(), data).Return(errRetryableErrProcessingError).Times(1)
		})

		It("should keep the error retryable and its category", func(ctx SpecContext) {
			err := parallel.Process(ctx, data)
			Expect(err).Should(MatchError(pipeline.ErrRetryableError), "error is retryable")

			processingError := pipeline.ErrProcessingError{}
			Expect(errors.As(err, &processingError)).To(BeTrue(), "error is a ErrProcessingError")
			Expect(processingError.Category).To(Equal(oneCategory))
		})
	})

	When("both processing return an error", func() {
		err1 := errors.New("error 1")
		err2 := errors.New("error 2")

		BeforeEach(func() {
			proc1.EXPECT().Process(gomock.Any(), data).Return(err1).MaxTimes(1)
			proc2.EXPECT().Process(gomock.Any(), data).Return(err2).MaxTimes(1)
		})

		It("should return one of the 2 errors", func(ctx SpecContext) {
			err := parallel.Process(ctx, data)
			Expect(err).Should(Or(MatchError(err1), MatchError(err2)))
		})
	})
})

// Test Panic Processing

var _ = Describe("Testing panic handler processing", func() {
	When("the inner processing panic", func() {
		It("should return an unexpected error with the panic category", func(ctx SpecContext) {
			err := pipeline.NewPanicHandlerProcessing[Data](PanicProcessing{}).Process(ctx, data)
			Expect(err).Should(MatchError(pipeline.ErrUnexpected))
			Expect(err.Error()).To(ContainSubstring(panicReason), "contain the panic reason")

			processingError := pipeline.ErrProcessingError{}
			Expect(errors.As(err, &processingError)).To(BeTrue())
			Expect(processingError.Category).To(Equal(pipeline.PanicCategory))

			By("keeping the stack")
			Expect(processingError.AdditionalInputs).To(HaveLen(1))
			Expect(processingError.AdditionalInputs[0].Key).To(Equal("stack"))
			Expect(string(processingError.AdditionalInputs[0].Value)).To(ContainSubstring("goroutine"))
		})
	})

	When("the inner processing returns an error", func() {
		It("should return the error untouched", func(ctx SpecContext) {
			proc := mock.NewMockProcessing[Data](gomock.NewController(GinkgoT()))
			proc.EXPECT().Process(gomock.Any(), data).Return(errOneError).Times(1)

			err := pipeline.NewPanicHandlerProcessing[Data](proc).Process(ctx, data)
			Expect(err).Should(MatchError(errOneError))
		})
	})
})

// Test Retry

var _ = Describe("Testing RetryProcessing", func() {
	var retry pipeline.Processing[Data]
	var proc *mock.MockProcessing[Data]
	var retried []uint

	BeforeEach(func() {
		retried = nil

		proc = mock.NewMockProcessing[Data](gomock.NewController(GinkgoT()))
		retry = pipeline.NewRetryProcessing[Data](proc, pipeline.RetryConfig{
			MaxAttempt: 3,
			Delay:      10 * time.Millisecond,
			OnRetry: func(attempt uint, _ error) {
				retried = append(retried, attempt)
			},
		})
	})

	When("the inner processing only fails the first time with a wrapped retryable error", func() {
		BeforeEach(func() {
			gomock.InOrder(
				proc.EXPECT().Process(gomock.Any(), data).Return(fmt.Errorf("wrapping: %w", errRetryableErrProcessingError)).Times(1),
				proc.EXPECT().Process(gomock.Any(), data).Return(nil).Times(1),
			)
		})

		It("should succeed", func(ctx SpecContext) {
			Expect(retry.Process(ctx, data)).To(Succeed())
			Expect(retried).To(Equal([]uint{0}))
		})
	})

	When("the inner processing fails with a generic error", func() {
		BeforeEach(func() {
			proc.EXPECT().Process(gomock.Any(), data).Return(errOneError).Times(1)
		})

		It("should fail immediately", func(ctx SpecContext) {
			Expect(retry.Process(ctx, data)).Should(MatchError(errOneError))
			Expect(retried).To(BeEmpty())
		})
	})

	When("the inner processing continuously fails with a retryable error", func() {
		BeforeEach(func() {
			proc.EXPECT().Process(gomock.Any(), data).Return(errRetryableErrProcessingError).Times(3)
		})

		It("should give up after 3 attempts and keep the category", func(ctx SpecContext) {
			err := retry.Process(ctx, data)
			Expect(err).Should(MatchError(pipeline.ErrRetryableError))

			processingError := pipeline.ErrProcessingError{}
			Expect(errors.As(err, &processingError)).To(BeTrue())
			Expect(processingError.Category).To(Equal(oneCategory))
		})
	})
})

// Test Metric Duration

var _ = Describe("Testing duration metrics decorator", func() {
	var registry *prometheus.Registry
	var metrics pipeline.Processing[Data]
	var proc *SlowProcessor

	BeforeEach(func() {
		var err error

		registry = prometheus.NewPedanticRegistry()
		fakeClock := clockwork.NewFakeClock()

		proc = NewSlowProcessor(fakeClock)
		metrics, err = pipeline.NewDurationMetricsDecoratorProcessing[Data](proc, registry, fakeClock,
			pipeline.MetricsConfig{
				Namespace:   "test",
				Buckets:     []float64{20, 200, 2000},
				ConstLabels: prometheus.Labels{"kind": "Target"},
			},
		)
		Expect(err).NotTo(HaveOccurred())
	})

	When("payloads are processed with different durations and outcomes", func() {
		BeforeEach(func() {
			proc.Sleep = 5 * time.Millisecond
			Expect(metrics.Process(context.TODO(), data)).To(Succeed())

			proc.Sleep = 50 * time.Millisecond
			Expect(metrics.Process(context.TODO(), data)).To(Succeed())

			proc.Sleep = 500 * time.Millisecond
			proc.Err = errors.New("failed")
			Expect(metrics.Process(context.TODO(), data)).NotTo(Succeed())

			proc.Sleep = 5000 * time.Millisecond
			proc.Err = errRetryableErrProcessingError
			Expect(metrics.Process(context.TODO(), data)).NotTo(Succeed())
		})

		It("should observe them in the histogram", func() {
			families, err := registry.Gather()
			Expect(err).NotTo(HaveOccurred())
			Expect(families).To(HaveLen(1))
			Expect(families[0].Metric).To(HaveLen(3))

			By("checking the success metric")
			success := filterMetricByLabel(families[0].Metric, "result", pipeline.ResultSuccess)
			Expect(success).NotTo(BeNil())
			Expect(*success.Histogram.SampleCount).To(BeEquivalentTo(2))
			Expect(success.Histogram.Bucket).To(ConsistOf(
				&promdto.Bucket{UpperBound: pointer[float64](20), CumulativeCount: pointer[uint64](1)},
				&promdto.Bucket{UpperBound: pointer[float64](200), CumulativeCount: pointer[uint64](2)},
				&promdto.Bucket{UpperBound: pointer[float64](2000), CumulativeCount: pointer[uint64](2)},
			))

			By("checking the failure metric")
			failure := filterMetricByLabel(families[0].Metric, "result", pipeline.ResultFailure)
			Expect(failure).NotTo(BeNil())
			Expect(*failure.Histogram.SampleCount).To(BeEquivalentTo(1))

			By("checking the retryable metric")
			retryable := filterMetricByLabel(families[0].Metric, "result", pipeline.ResultRetryable)
			Expect(retryable).NotTo(BeNil())
			Expect(*retryable.Histogram.SampleCount).To(BeEquivalentTo(1))

			By("checking the const label")
			Expect(filterMetricByLabel(families[0].Metric, "kind", "Target")).NotTo(BeNil())
		})
	})
})

// Test Error Count

var _ = Describe("Testing error count processing", func() {
	var registry *prometheus.Registry
	var metrics pipeline.Processing[pipeline.ErrProcessingError]

	BeforeEach(func() {
		var err error

		registry = prometheus.NewPedanticRegistry()

		metrics, err = pipeline.NewErrorCountProcessing(registry, pipeline.MetricsConfig{Namespace: "test"})
		Expect(err).NotTo(HaveOccurred())
	})

	When("processing errors with different categories", func() {
		BeforeEach(func() {
			for i := 0; i < 2; i++ {
				Expect(metrics.Process(context.TODO(), pipeline.NewErrProcessingError(errOneError, "category1", nil))).To(Succeed())
			}

			Expect(metrics.Process(context.TODO(), pipeline.NewErrProcessingError(errOneError, "", nil))).To(Succeed())
			Expect(metrics.Process(context.TODO(), pipeline.NewRetryableErrProcessingError(errOneError, "category2", nil))).To(Succeed())
		})

		It("should count them by category", func() {
			families, err := registry.Gather()
			Expect(err).NotTo(HaveOccurred())
			Expect(families).To(HaveLen(1))
			Expect(families[0].Metric).To(HaveLen(3))

			category1 := filterMetricByLabel(families[0].Metric, "category", "category1")
			Expect(category1).NotTo(BeNil())
			Expect(*category1.Counter.Value).To(BeEquivalentTo(2))

			empty := filterMetricByLabel(families[0].Metric, "category", pipeline.UnknownCategory)
			Expect(empty).NotTo(BeNil())
			Expect(*empty.Counter.Value).To(BeEquivalentTo(1))

			retryable := filterMetricByLabel(families[0].Metric, "retryable", "true")
			Expect(retryable).NotTo(BeNil())
			Expect(*retryable.Counter.Value).To(BeEquivalentTo(1))
		})
	})
})
