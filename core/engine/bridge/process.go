package bridge

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"disc3d-batch/core/engine"

	"go.uber.org/zap"
)

// Script is the bridge script shipped with the binary. It is written to a temporary
// file when no script path is configured.
//
//go:embed disc3d_bridge.py
var Script []byte

// Process is an engine session backed by an engine subprocess running the bridge
// script.
type Process struct {
	*Conn
	cmd   *exec.Cmd
	stdin io.WriteCloser
	// temp is the extracted bridge script, removed on Close.
	temp string
}

// Start launches the engine with the bridge script and returns a ready session.
func Start(ctx context.Context, cfg engine.Config, logger *zap.Logger) (*Process, error) {
	script, temp := cfg.Script, ""
	if script == "" {
		path, err := extractScript()
		if err != nil {
			return nil, err
		}
		script, temp = path, path
	} else if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("engine bridge script: %w", err)
	}

	p, err := start(ctx, cfg, script, logger)
	if err != nil {
		if temp != "" {
			_ = os.Remove(temp)
		}
		return nil, err
	}
	p.temp = temp
	return p, nil
}

func extractScript() (string, error) {
	f, err := os.CreateTemp("", "disc3d-bridge-*.py")
	if err != nil {
		return "", fmt.Errorf("failed to extract bridge script: %w", err)
	}
	if _, err := f.Write(Script); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to extract bridge script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to extract bridge script: %w", err)
	}
	return f.Name(), nil
}

func start(ctx context.Context, cfg engine.Config, script string, logger *zap.Logger) (*Process, error) {
	args := append(strings.Fields(cfg.ExtraArgs), cfg.ScriptFlag, script)
	cmd := exec.CommandContext(ctx, cfg.Executable, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", cfg.Executable, err)
	}

	logger.Debug("Engine started", zap.String("executable", cfg.Executable), zap.String("script", script), zap.Int("pid", cmd.Process.Pid))

	return &Process{
		Conn:  NewConn(stdout, stdin, logger),
		cmd:   cmd,
		stdin: stdin,
	}, nil
}

// Close ends the session. Closing stdin tells the bridge script to exit.
func (p *Process) Close() error {
	_ = p.stdin.Close()
	err := p.cmd.Wait()
	if p.temp != "" {
		_ = os.Remove(p.temp)
	}
	if err != nil {
		return fmt.Errorf("engine exited: %w", err)
	}
	return nil
}

var _ engine.Engine = (*Process)(nil)
