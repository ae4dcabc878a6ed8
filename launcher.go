package vstbridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// LaunchRequest describes the worker process to start
type LaunchRequest struct {
	WorkerPath string
	PluginPath string
	PortID     int // Control port handle
	LogLevel   LogLevel
	LogPath    string
	Env        []string
}

// Args returns the worker's positional arguments:
// <plugin path> <control port id> <log level> <log path>.
func (r LaunchRequest) Args() []string {
	return []string{
		r.PluginPath,
		strconv.Itoa(r.PortID),
		strconv.Itoa(int(r.LogLevel)),
		r.LogPath,
	}
}

// Launcher starts worker processes
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (Process, error)
}

// Process is a running worker
type Process interface {
	PID() int
	Wait() error // Blocks until the worker exits
	Kill() error
}

// ExecLauncher starts the worker executable as a child process.
type ExecLauncher struct{}

func (ExecLauncher) Launch(ctx context.Context, req LaunchRequest) (Process, error) {
	if req.WorkerPath == "" {
		return nil, fmt.Errorf("vstbridge: no worker executable configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(req.WorkerPath, req.Args()...)
	cmd.Env = append(os.Environ(), req.Env...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("vstbridge: start %s: %w", req.WorkerPath, err)
	}
	return execProcess{cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) PID() int    { return p.cmd.Process.Pid }
func (p execProcess) Wait() error { return p.cmd.Wait() }
func (p execProcess) Kill() error { return p.cmd.Process.Kill() }
