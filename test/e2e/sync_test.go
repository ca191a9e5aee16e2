package e2e_test

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/common/expfmt"

	"github.com/nok-base/consul-sync/test/e2e"
)

const (
	syncTimeout  = 30 * time.Second
	pollInterval = 500 * time.Millisecond
)

var _ = Describe("Syncing inventory resources to consul", Ordered, func() {
	var tc *e2e.TestContext

	BeforeAll(func(ctx SpecContext) {
		var err error

		tc, err = e2e.CreateTestContext(e2e.CreateTestConfig("sync", binary), kubeconfig)
		Expect(err).NotTo(HaveOccurred())

		err = tc.DeployAll(ctx, kubeconfig)
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func(ctx SpecContext) {
			GinkgoWriter.Println(tc.SyncOutput())

			err := tc.Shutdown(ctx)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	service := func(id string) func() (*api.AgentService, error) {
		return func() (*api.AgentService, error) {
			return tc.Service(id)
		}
	}

	When("a ready target is created", func() {
		BeforeAll(func(ctx SpecContext) {
			err := tc.ApplyTarget(ctx, "r1", "10.0.0.1", true, map[string]interface{}{"sdcio.dev/region": "eu-west"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should register it", func() {
			Eventually(service("r1")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(And(
				Not(BeNil()),
				HaveField("Address", "10.0.0.1"),
				HaveField("Port", 57400),
				HaveField("Tags", ContainElements("network-element", "region:eu-west", "kind-type:primary")),
			))
		})

		It("should remove it once it is not ready anymore", func(ctx SpecContext) {
			err := tc.ApplyTarget(ctx, "r1", "10.0.0.1", false, nil)
			Expect(err).NotTo(HaveOccurred())

			Eventually(service("r1")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(BeNil())
		})

		It("should register it again when ready", func(ctx SpecContext) {
			err := tc.ApplyTarget(ctx, "r1", "10.0.0.2", true, nil)
			Expect(err).NotTo(HaveOccurred())

			Eventually(service("r1")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(HaveField("Address", "10.0.0.2"))
		})

		It("should remove it on deletion", func(ctx SpecContext) {
			err := tc.Delete(ctx, e2e.Targets, "r1")
			Expect(err).NotTo(HaveOccurred())

			Eventually(service("r1")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(BeNil())
		})
	})

	When("a target has no address", func() {
		It("should not register it", func(ctx SpecContext) {
			err := tc.ApplyTarget(ctx, "r2", "", true, nil)
			Expect(err).NotTo(HaveOccurred())

			Consistently(service("r2")).WithTimeout(3 * time.Second).WithPolling(pollInterval).Should(BeNil())
		})
	})

	When("an additional endpoint is created", func() {
		It("should register it under its own id", func(ctx SpecContext) {
			err := tc.ApplyAdditionalEndpoint(ctx, "gnmic", map[string]interface{}{
				"id":      "gnmic-collector",
				"address": "10.1.0.1",
				"port":    int64(9804),
				"tags":    []interface{}{"collector", "collector"},
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(service("gnmic-collector")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(And(
				Not(BeNil()),
				HaveField("Port", 9804),
				HaveField("Tags", ConsistOf("additional-endpoint", "collector")),
			))
		})

		It("should remove it on deletion", func(ctx SpecContext) {
			err := tc.Delete(ctx, e2e.AdditionalEndpoints, "gnmic")
			Expect(err).NotTo(HaveOccurred())

			Eventually(service("gnmic-collector")).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(BeNil())
		})
	})

	It("should expose event metrics", func(ctx context.Context) {
		Eventually(func() (bool, error) {
			raw, err := tc.Metrics(ctx)
			if err != nil {
				return false, err
			}

			var parser expfmt.TextParser

			families, err := parser.TextToMetricFamilies(strings.NewReader(raw))
			if err != nil {
				return false, err
			}

			_, found := families["consul_sync_events_total"]

			return found, nil
		}).WithTimeout(syncTimeout).WithPolling(pollInterval).Should(BeTrue())
	})
})
