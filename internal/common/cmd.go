package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dustin/go-humanize"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/nok-base/consul-sync/internal/log"
)

const (
	// default ratio from the memlimit pkg
	memLimitRatio = 0.9
)

// CloseFunc releases a client created by a factory.
type CloseFunc func(context.Context) error

// CloseAll calls every CloseFunc, in reverse order, and joins their errors.
func CloseAll(ctx context.Context, closers ...CloseFunc) error {
	var errs []error

	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}

		err := closers[i](ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SetupSignalHandler returns a context cancelled on the first SIGINT/SIGTERM.
// Every supervisor observes this context; a second signal exits directly.
func SetupSignalHandler(ctx context.Context) context.Context {
	ret, cancel := context.WithCancel(ctx)

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		logger := log.Logger()

		<-c
		logger.V(0).Info("Signal received to stop")
		cancel()

		<-c
		logger.V(0).Info("Re-receiving stop signal, exit directly")
		os.Exit(1)
	}()

	return ret
}

func SetMaxProcs() error {
	logger := log.Logger()

	// maxprocs uses a logger with parameters: $template, $arg1, $arg2, ... whereas logr has the same signature but different meaning: $msg, $key1, $value1, $key2, $value2, ...
	_, err := maxprocs.Set(maxprocs.Logger(func(msg string, args ...interface{}) {
		logger.Info(fmt.Sprintf(msg, args...))
	}))
	if err != nil {
		return fmt.Errorf("failed to set max procs: %w", err)
	}

	return nil
}

func SetMemLimit() error {
	logger := log.Logger()

	limit, err := memlimit.SetGoMemLimit(memLimitRatio)
	if err != nil {
		// No cgroup limit outside of a container
		if errors.Is(err, memlimit.ErrNoLimit) {
			logger.V(1).Info("No memory limit found, go memlimit not configured")

			return nil
		}

		return fmt.Errorf("failed to set go mem limit: %w", err)
	}

	logger.V(1).Info("Go memlimit configured", "ratio", memLimitRatio, "limit", humanize.IBytes(uint64(limit)))

	return nil
}
