package supervisor

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"time"

	"camoufox-launcher/internal/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WorkerCommand 子进程入口的隐藏子命令
const WorkerCommand = "worker"

// ProcessSpawner 通过重新执行当前二进制的 worker 子命令启动子进程，
// 最终配置以 JSON 写入子进程 stdin，子进程的输出按 profile 写入运行日志
type ProcessSpawner struct {
	Executable string
	Args       []string
	// Env 追加到当前进程环境变量之后
	Env []string
}

// NewProcessSpawner 创建使用当前可执行文件的 spawner
func NewProcessSpawner() (*ProcessSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate launcher executable")
	}
	return &ProcessSpawner{
		Executable: exe,
		Args:       []string{WorkerCommand},
	}, nil
}

// Spawn 启动一个子进程，返回后子进程独立运行
func (s *ProcessSpawner) Spawn(cfg config.FinalizedConfig) (Handle, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode worker config")
	}

	cmd := exec.Command(s.Executable, s.Args...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stdin = bytes.NewReader(payload)

	entry := logrus.WithField("profile", cfg.CredentialFilename)
	stdout := entry.WriterLevel(logrus.InfoLevel)
	stderr := entry.WriterLevel(logrus.InfoLevel)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// 子进程退出后最多再等待输出管道关闭这么久
	cmd.WaitDelay = 5 * time.Second

	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, errors.Wrapf(err, "failed to start worker for %s", cfg.CredentialFilename)
	}

	h := &processHandle{
		name:    cfg.CredentialFilename,
		cmd:     cmd,
		done:    make(chan struct{}),
		closers: []io.Closer{stdout, stderr},
	}
	go h.wait()

	return h, nil
}

// processHandle tracks one OS-level worker process
type processHandle struct {
	name    string
	cmd     *exec.Cmd
	done    chan struct{}
	err     error
	closers []io.Closer
}

func (h *processHandle) wait() {
	h.err = h.cmd.Wait()
	for _, c := range h.closers {
		c.Close()
	}
	close(h.done)
}

func (h *processHandle) Name() string { return h.name }

func (h *processHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *processHandle) Terminate() error {
	select {
	case <-h.done:
		return os.ErrProcessDone
	default:
	}
	return terminateProcess(h.cmd.Process)
}

func (h *processHandle) Kill() error {
	return h.cmd.Process.Kill()
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

func (h *processHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
