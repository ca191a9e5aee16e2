package e2e

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	consulImage = "hashicorp/consul:1.20"

	crdGroup   = "inv.sdcio.dev"
	crdVersion = "v1alpha1"

	maxSizeName = 12
)

var (
	namespaces = schema.GroupVersionResource{Version: "v1", Resource: "namespaces"}
	crds       = schema.GroupVersionResource{Group: "apiextensions.k8s.io", Version: "v1", Resource: "customresourcedefinitions"}

	Targets             = schema.GroupVersionResource{Group: crdGroup, Version: crdVersion, Resource: "targets"}
	AdditionalEndpoints = schema.GroupVersionResource{Group: crdGroup, Version: crdVersion, Resource: "additionalendpoints"}
)

type TestConfig struct {
	Namespace   string
	MetricsPort int
	Binary      string
}

type TestContext struct {
	Config TestConfig

	kube   dynamic.Interface
	consul *api.Client

	consulContainer testcontainers.Container
	consulAddress   string

	process *Process
}

var random *rand.Rand

func init() {
	now := time.Now()

	random = rand.New(rand.NewSource(now.UnixMilli()))
}

func CreateTestConfig(test string, binary string) TestConfig {
	prefix := test
	if len(test) > maxSizeName {
		prefix = test[:maxSizeName]
	}

	return TestConfig{
		Namespace:   fmt.Sprintf("%s-%x", prefix, random.Int31()),
		MetricsPort: 20000 + random.Intn(10000),
		Binary:      binary,
	}
}

func CreateTestContext(conf TestConfig, kubeconfig string) (*TestContext, error) {
	ret := &TestContext{
		Config: conf,
	}

	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig %s: %w", kubeconfig, err)
	}

	ret.kube, err = dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kube client: %w", err)
	}

	return ret, nil
}

// Generic func

func (tc *TestContext) DeployAll(ctx context.Context, kubeconfig string) error {
	err := tc.InstallCRDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to install crds: %w", err)
	}

	err = tc.CreateNamespace(ctx)
	if err != nil {
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	err = tc.StartConsul(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consul: %w", err)
	}

	err = tc.StartSync(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to start sync: %w", err)
	}

	return nil
}

func (tc *TestContext) Shutdown(ctx context.Context) error {
	// Stop the sync first
	if tc.process != nil {
		err := tc.process.Stop()
		if err != nil {
			return err
		}
	}

	if tc.consulContainer != nil {
		err := tc.consulContainer.Terminate(ctx)
		if err != nil {
			return fmt.Errorf("failed to terminate consul: %w", err)
		}
	}

	err := tc.kube.Resource(namespaces).Delete(ctx, tc.Config.Namespace, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}

	return nil
}

// Sync func

func (tc *TestContext) StartSync(kubeconfig string) error {
	process, err := StartProcess(tc.Config.Binary, map[string]string{
		"KUBECONFIG":                    kubeconfig,
		"CONSUL_HTTP_ADDR":              tc.consulAddress,
		"CONSULSYNC_WATCH_NAMESPACE":    tc.Config.Namespace,
		"CONSULSYNC_WATCH_BACKOFF":      "1s",
		"CONSULSYNC_METRICS_PORT":       fmt.Sprintf("%d", tc.Config.MetricsPort),
		"CONSULSYNC_LOGS_LEVEL":         "2",
		"CONSULSYNC_WATCH_RESYNCPERIOD": "10s",
	})
	if err != nil {
		return err
	}

	tc.process = process

	return nil
}

func (tc *TestContext) SyncOutput() string {
	if tc.process == nil {
		return ""
	}

	return tc.process.Output()
}

// Consul func

func (tc *TestContext) StartConsul(ctx context.Context) error {
	req := testcontainers.ContainerRequest{
		Image:        consulImage,
		ExposedPorts: []string{"8500/tcp"},
		Cmd:          []string{"agent", "-dev", "-client", "0.0.0.0"},
		WaitingFor:   wait.ForHTTP("/v1/status/leader").WithPort("8500/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("failed to start consul container: %w", err)
	}

	tc.consulContainer = container

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to get consul endpoint: %w", err)
	}

	tc.consulAddress = endpoint

	tc.consul, err = api.NewClient(&api.Config{Address: endpoint, Scheme: "http"})
	if err != nil {
		return fmt.Errorf("failed to create consul client: %w", err)
	}

	return nil
}

func (tc *TestContext) Service(id string) (*api.AgentService, error) {
	services, err := tc.consul.Agent().Services()
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	return services[id], nil
}

// Kube func

func (tc *TestContext) CreateNamespace(ctx context.Context) error {
	namespace := corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{Name: tc.Config.Namespace},
	}

	obj, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&namespace)
	if err != nil {
		return fmt.Errorf("failed to convert namespace: %w", err)
	}

	_, err = tc.kube.Resource(namespaces).Create(ctx, &unstructured.Unstructured{Object: obj}, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create namespace %s: %w", tc.Config.Namespace, err)
	}

	return nil
}

// InstallCRDs installs schema-less definitions of the watched kinds, status included in the main resource.
func (tc *TestContext) InstallCRDs(ctx context.Context) error {
	for kind, resource := range map[string]string{"Target": Targets.Resource, "AdditionalEndpoint": AdditionalEndpoints.Resource} {
		crd := &unstructured.Unstructured{Object: map[string]interface{}{
			"apiVersion": "apiextensions.k8s.io/v1",
			"kind":       "CustomResourceDefinition",
			"metadata":   map[string]interface{}{"name": resource + "." + crdGroup},
			"spec": map[string]interface{}{
				"group": crdGroup,
				"scope": "Namespaced",
				"names": map[string]interface{}{
					"kind":     kind,
					"plural":   resource,
					"singular": strings.ToLower(kind),
				},
				"versions": []interface{}{
					map[string]interface{}{
						"name":    crdVersion,
						"served":  true,
						"storage": true,
						"schema": map[string]interface{}{
							"openAPIV3Schema": map[string]interface{}{
								"type":                                 "object",
								"x-kubernetes-preserve-unknown-fields": true,
							},
						},
					},
				},
			},
		}}

		_, err := tc.kube.Resource(crds).Create(ctx, crd, metav1.CreateOptions{})
		if err != nil && !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create crd %s: %w", kind, err)
		}
	}

	return nil
}

func (tc *TestContext) ApplyTarget(ctx context.Context, name string, address string, ready bool, labels map[string]interface{}) error {
	status := "False"
	if ready {
		status = "True"
	}

	obj := map[string]interface{}{
		"apiVersion": crdGroup + "/" + crdVersion,
		"kind":       "Target",
		"metadata":   map[string]interface{}{"name": name, "namespace": tc.Config.Namespace, "labels": labels},
		"spec":       map[string]interface{}{},
		"status": map[string]interface{}{
			"conditions": []interface{}{map[string]interface{}{"type": "Ready", "status": status}},
		},
	}

	if address != "" {
		obj["spec"] = map[string]interface{}{"address": address}
	}

	return tc.apply(ctx, Targets, &unstructured.Unstructured{Object: obj})
}

func (tc *TestContext) ApplyAdditionalEndpoint(ctx context.Context, name string, spec map[string]interface{}) error {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": crdGroup + "/" + crdVersion,
		"kind":       "AdditionalEndpoint",
		"metadata":   map[string]interface{}{"name": name, "namespace": tc.Config.Namespace},
		"spec":       spec,
	}}

	return tc.apply(ctx, AdditionalEndpoints, obj)
}

func (tc *TestContext) Delete(ctx context.Context, resource schema.GroupVersionResource, name string) error {
	err := tc.kube.Resource(resource).Namespace(tc.Config.Namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", resource.Resource, name, err)
	}

	return nil
}

func (tc *TestContext) apply(ctx context.Context, resource schema.GroupVersionResource, obj *unstructured.Unstructured) error {
	client := tc.kube.Resource(resource).Namespace(tc.Config.Namespace)

	existing, err := client.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = client.Create(ctx, obj, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", obj.GetName(), err)
		}

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get %s: %w", obj.GetName(), err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())

	_, err = client.Update(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", obj.GetName(), err)
	}

	return nil
}

// Metrics func

func (tc *TestContext) Metrics(ctx context.Context) (string, error) {
	url := fmt.Sprintf("http://%s/metrics", net.JoinHostPort("localhost", fmt.Sprintf("%d", tc.Config.MetricsPort)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get metrics: %w", err)
	}

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics: %w", err)
	}

	return string(b), nil
}
