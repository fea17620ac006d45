package smi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/domain/driver"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
)

const (
	smiExecutable = "nvidia-smi"
	csvFormat     = "--format=csv,noheader"

	// memoryFieldCount is how many comma-separated values the memory query returns.
	memoryFieldCount = 3
)

// Querier asks the local diagnostic command about driver state.
// Implementations must treat every query as independent: a failed field never
// aborts collection of the others.
type Querier interface {
	// Available reports whether the diagnostic command exists and responds.
	Available(ctx context.Context) bool
	// DriverVersion returns the installed driver version.
	DriverVersion(ctx context.Context) (string, error)
	// Collect gathers the driver state with best-effort GPU properties.
	Collect(ctx context.Context) *driver.State
}

// runFunc executes a command and returns its stdout.
// It exists so tests can swap the real nvidia-smi for a fake.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Command queries driver state through the nvidia-smi executable.
// Every invocation is bounded by the configured timeout.
type Command struct {
	timeout time.Duration
	run     runFunc
}

// NewCommand returns a Querier backed by the real nvidia-smi executable.
func NewCommand(timeout time.Duration) *Command {
	return &Command{
		timeout: timeout,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Available reports whether nvidia-smi exists and exits successfully.
// A missing executable, a nonzero exit or a timeout all mean "no driver".
func (c *Command) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.run(ctx, smiExecutable, "--version")

	return err == nil
}

// DriverVersion returns the installed driver version.
func (c *Command) DriverVersion(ctx context.Context) (string, error) {
	return c.query(ctx, "driver_version")
}

// Collect gathers the driver state. Each field comes from an independent
// bounded query; failures leave the field empty instead of failing the whole
// collection.
func (c *Command) Collect(ctx context.Context) *driver.State {
	state := new(driver.State)

	if v, err := c.DriverVersion(ctx); err == nil {
		state.Version = v
	} else {
		logger.Debugf(ctx, "Driver version query failed: %v", err)
	}

	if name, err := c.query(ctx, "name"); err == nil {
		state.GPUName = name
	} else {
		logger.Debugf(ctx, "GPU name query failed: %v", err)
	}

	if cuda, err := c.query(ctx, "cuda_version"); err == nil {
		state.CUDAVersion = cuda
	} else {
		logger.Debugf(ctx, "CUDA version query failed: %v", err)
	}

	c.collectMemory(ctx, state)

	return state
}

// collectMemory fills the memory fields from a single combined query.
func (c *Command) collectMemory(ctx context.Context, state *driver.State) {
	output, err := c.query(ctx, "memory.total,memory.used,memory.free")
	if err != nil {
		logger.Debugf(ctx, "Memory query failed: %v", err)
		return
	}

	parts := strings.Split(output, ", ")
	if len(parts) != memoryFieldCount {
		logger.Debugf(ctx, "Unexpected memory query output: %q", output)
		return
	}

	state.MemoryTotal = parts[0]
	state.MemoryUsed = parts[1]
	state.MemoryFree = parts[2]
}

// query runs a single --query-gpu invocation and returns the first output
// line trimmed. Multi-GPU hosts report one line per device; the first device
// is representative for the driver-level fields this tool cares about.
func (c *Command) query(ctx context.Context, fields string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := c.run(ctx, smiExecutable, "--query-gpu="+fields, csvFormat)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", fields, err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")

	return strings.TrimSpace(line), nil
}
