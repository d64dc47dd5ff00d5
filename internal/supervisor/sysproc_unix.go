//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// 子进程放入独立进程组，终端的 Ctrl+C 只发给启动器，由启动器负责转发终止信号
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
