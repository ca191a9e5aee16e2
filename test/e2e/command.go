package e2e

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vladimirvivien/gexe/exec"
)

func runCommand(command string, env []string) error {
	stdout := bytes.NewBufferString("")
	stderr := bytes.NewBufferString("")

	proc := exec.NewProc(command)
	proc.Command().Stdout = stdout
	proc.Command().Stderr = stderr

	if len(env) > 0 {
		proc.Command().Env = env
	}

	proc.Start().Wait()

	err := proc.Err()
	if err != nil {
		sOutput, _ := io.ReadAll(stdout)
		sErr, _ := io.ReadAll(stderr)

		return fmt.Errorf("failed to run command (%w): stdout:%s stderr:%s", err, string(sOutput), string(sErr))
	}

	return nil
}

// BuildBinary compiles the sync into path, from the repository root.
func BuildBinary(path string) error {
	return runCommand(fmt.Sprintf("go build -C ../.. -o %s ./cmd/consul-sync", path), nil)
}

// Process is a running consul-sync.
type Process struct {
	proc *exec.Proc

	mu     sync.Mutex
	output *bytes.Buffer
}

func StartProcess(command string, env map[string]string) (*Process, error) {
	ret := &Process{output: bytes.NewBufferString("")}

	ret.proc = exec.NewProc(command)
	ret.proc.Command().Stdout = ret
	ret.proc.Command().Stderr = ret
	ret.proc.Command().Env = os.Environ()

	for key, value := range env {
		ret.proc.Command().Env = append(ret.proc.Command().Env, fmt.Sprintf("%s=%s", key, value))
	}

	ret.proc.Start()

	err := ret.proc.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command, err)
	}

	return ret, nil
}

func (p *Process) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.output.Write(b)
}

// Output returns everything the process logged so far.
func (p *Process) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.output.String()
}

// Stop sends SIGINT and waits for the process to exit.
func (p *Process) Stop() error {
	err := p.proc.Command().Process.Signal(os.Interrupt)
	if err != nil {
		return fmt.Errorf("failed to signal process: %w", err)
	}

	p.proc.Wait()

	return nil
}
