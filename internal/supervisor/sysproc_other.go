//go:build !unix

package supervisor

import (
	"os"
	"os/exec"
)

func configureProcess(cmd *exec.Cmd) {}

// 没有 SIGTERM 的平台直接结束进程
func terminateProcess(p *os.Process) error {
	return p.Kill()
}
