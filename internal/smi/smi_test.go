package smi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// errNoCommand imitates exec's "executable file not found" failure.
var errNoCommand = errors.New(`exec: "nvidia-smi": executable file not found in $PATH`)

// fakeRun builds a runFunc returning canned output per --query-gpu argument.
func fakeRun(outputs map[string]string, err error) runFunc {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if err != nil {
			return nil, err
		}

		for _, arg := range args {
			if query, ok := strings.CutPrefix(arg, "--query-gpu="); ok {
				return []byte(outputs[query] + "\n"), nil
			}
		}

		// Bare --version probe.
		return []byte("NVIDIA-SMI version  : 580.105.08\n"), nil
	}
}

func newTestCommand(outputs map[string]string, err error) *Command {
	return &Command{
		timeout: time.Second,
		run:     fakeRun(outputs, err),
	}
}

// TestAvailable covers both the present and the missing-command cases.
func TestAvailable(t *testing.T) {
	t.Parallel()

	require.True(t, newTestCommand(nil, nil).Available(context.Background()))
	require.False(t, newTestCommand(nil, errNoCommand).Available(context.Background()))
}

// TestDriverVersion ensures the version is trimmed to a single clean token.
func TestDriverVersion(t *testing.T) {
	t.Parallel()

	c := newTestCommand(map[string]string{"driver_version": "  580.105.08  "}, nil)

	v, err := c.DriverVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "580.105.08", v)
}

// TestDriverVersionError propagates command failure to the caller.
func TestDriverVersionError(t *testing.T) {
	t.Parallel()

	_, err := newTestCommand(nil, errNoCommand).DriverVersion(context.Background())
	require.Error(t, err)
}

// TestCollect gathers all fields and takes the first line on multi-GPU hosts.
func TestCollect(t *testing.T) {
	t.Parallel()

	c := newTestCommand(map[string]string{
		"driver_version": "580.105.08",
		"name":           "NVIDIA GeForce RTX 4090\nNVIDIA GeForce RTX 4090",
		"cuda_version":   "13.0",
		"memory.total,memory.used,memory.free": "24564 MiB, 1024 MiB, 23540 MiB",
	}, nil)

	state := c.Collect(context.Background())
	require.Equal(t, "580.105.08", state.Version)
	require.Equal(t, "NVIDIA GeForce RTX 4090", state.GPUName)
	require.Equal(t, "13.0", state.CUDAVersion)
	require.Equal(t, "24564 MiB", state.MemoryTotal)
	require.Equal(t, "1024 MiB", state.MemoryUsed)
	require.Equal(t, "23540 MiB", state.MemoryFree)
	require.True(t, state.HasGPUInfo())
}

// TestCollectDegradesPerField ensures one failing query never wipes the rest.
func TestCollectDegradesPerField(t *testing.T) {
	t.Parallel()

	c := &Command{
		timeout: time.Second,
		run: func(_ context.Context, _ string, args ...string) ([]byte, error) {
			for _, arg := range args {
				// cuda_version is rejected by some driver generations.
				if strings.Contains(arg, "cuda_version") {
					return nil, errors.New("exit status 2")
				}

				if query, ok := strings.CutPrefix(arg, "--query-gpu="); ok {
					switch query {
					case "driver_version":
						return []byte("580.105.08\n"), nil
					case "name":
						return []byte("NVIDIA T4\n"), nil
					default:
						return []byte("15360 MiB, 100 MiB, 15260 MiB\n"), nil
					}
				}
			}

			return nil, nil
		},
	}

	state := c.Collect(context.Background())
	require.Equal(t, "580.105.08", state.Version)
	require.Equal(t, "NVIDIA T4", state.GPUName)
	require.Empty(t, state.CUDAVersion)
	require.Equal(t, "15360 MiB", state.MemoryTotal)
}

// TestCollectMemoryMalformed leaves memory fields empty on unexpected output.
func TestCollectMemoryMalformed(t *testing.T) {
	t.Parallel()

	c := newTestCommand(map[string]string{
		"memory.total,memory.used,memory.free": "garbage",
	}, nil)

	state := c.Collect(context.Background())
	require.Empty(t, state.MemoryTotal)
	require.Empty(t, state.MemoryUsed)
	require.Empty(t, state.MemoryFree)
}
