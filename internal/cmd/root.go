package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/orchestrator"
	"camoufox-launcher/internal/supervisor"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewRootCommand 创建启动器根命令，工作目录下的 cookies/ 与 logs/ 为运行目录
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "camoufox-launcher",
		Short: "Launch one browser instance per cookie profile",
		Long: `camoufox-launcher scans ./cookies for *.json credential files and starts
one isolated browser worker per file, all pointed at CAMOUFOX_INSTANCE_URL.
Workers are started one at a time with CAMOUFOX_LAUNCH_INTERVAL between them
and are terminated together on interrupt.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLauncher,
	}
	root.AddCommand(newWorkerCommand())
	return root
}

func runLauncher(cmd *cobra.Command, _ []string) error {
	// .env 不存在时直接使用进程环境变量
	_ = godotenv.Load()

	base, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to resolve working directory")
	}

	spawner, err := supervisor.NewProcessSpawner()
	if err != nil {
		return err
	}

	o := &orchestrator.Orchestrator{
		BaseDir: base,
		Env:     config.NewEnv(),
		Spawner: spawner,
		Console: true,
	}
	err = o.Run(cmd.Context())
	if errors.Is(err, config.ErrConfiguration) {
		// 配置问题已写入日志，正常退出
		return nil
	}
	return err
}

// Execute 运行根命令并返回进程退出码
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
