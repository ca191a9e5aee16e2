package e2e_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nok-base/consul-sync/test/e2e"
)

var kubeconfig string // path to kubeconfig file

var binary string // path to the consul-sync binary built for the suite

func init() {
	flag.StringVar(&kubeconfig, "kubeconfig", defaultKubeConfigFilePath(), "path to the kubeconfig file")
}

func rootDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// move up twice to go back to the root dir
	if filepath.Base(wd) == "e2e" {
		return filepath.Dir(filepath.Dir(wd))
	}

	return wd
}

func defaultKubeConfigFilePath() string {
	ret := filepath.Join(rootDir(), "build", "kubeconfig")

	_, err := os.Stat(ret)
	if err != nil {
		return ""
	}

	return ret
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

var _ = BeforeSuite(func() {
	if kubeconfig == "" {
		Skip("no kubeconfig, skipping e2e tests")
	}

	binary = filepath.Join(rootDir(), "build", "consul-sync")

	err := e2e.BuildBinary(binary)
	Expect(err).NotTo(HaveOccurred())
})

// Go Test
func TestCommon(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Common test suite")
}
