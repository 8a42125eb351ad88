package model

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hpcloud/tail"
	process "github.com/mudler/go-processmanager"
	"github.com/mudler/xlog"
)

func (ml *ModelLoader) startProcess(grpcProcess, serverAddress string, env []string, args ...string) (*process.Process, error) {
	// Make sure the process is executable
	if err := os.Chmod(grpcProcess, 0700); err != nil {
		return nil, err
	}

	xlog.Debug("Loading GRPC Process", "process", grpcProcess)
	xlog.Debug("GRPC Service will be running", "address", serverAddress)

	grpcControlProcess := process.New(
		process.WithTemporaryStateDir(),
		process.WithName(grpcProcess),
		process.WithArgs(append(args, []string{"--addr", serverAddress}...)...),
		process.WithEnvironment(append(os.Environ(), env...)...),
	)

	if err := grpcControlProcess.Run(); err != nil {
		return nil, err
	}

	xlog.Debug("GRPC Service state dir", "dir", grpcControlProcess.StateDir())

	id := strings.Join([]string{grpcProcess, serverAddress}, "-")
	go tailLog(id, "stderr", grpcControlProcess.StderrPath())
	go tailLog(id, "stdout", grpcControlProcess.StdoutPath())

	return grpcControlProcess, nil
}

func tailLog(id, stream, path string) {
	t, err := tail.TailFile(path, tail.Config{Follow: true, ReOpen: true, MustExist: false})
	if err != nil {
		xlog.Debug("Could not tail", "stream", stream, "error", err)
		return
	}
	for line := range t.Lines {
		xlog.Debug(fmt.Sprintf("GRPC(%s): %s %s", id, stream, line.Text))
	}
}

// Stop terminates the runtime process started by Load, if any.
func (ml *ModelLoader) Stop() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var err error
	if ml.client != nil {
		err = ml.client.Close()
	}
	if ml.process != nil {
		xlog.Debug("Stopping diffusion runtime", "pid", ml.process.PID)
		if perr := ml.process.Stop(); perr != nil {
			err = perr
		}
		ml.process = nil
	}
	return err
}

// PID returns the pid of the runtime process started by Load.
func (ml *ModelLoader) PID() (int, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.process == nil {
		return -1, fmt.Errorf("no diffusion runtime process running")
	}
	return strconv.Atoi(ml.process.PID)
}
