package cmd

import (
	"encoding/json"
	"io"

	"camoufox-launcher/internal/browser"
	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/logger"
	"camoufox-launcher/internal/supervisor"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newWorkerCommand 子进程入口，启动器通过 stdin 传入最终配置
func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    supervisor.WorkerCommand,
		Short:  "Run a single browser instance (internal)",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetupWorkerLogger(cmd.ErrOrStderr())

			cfg, err := readWorkerConfig(cmd.InOrStdin())
			if err != nil {
				return err
			}

			logrus.Infof("实例启动: url=%s headless=%s", cfg.SharedURL, cfg.HeadlessMode)
			if err := browser.Run(cmd.Context(), cfg); err != nil {
				logrus.Errorf("实例运行失败: %v", err)
				return err
			}
			logrus.Info("实例已停止")
			return nil
		},
	}
}

// readWorkerConfig 解析 stdin 中的最终配置
func readWorkerConfig(r io.Reader) (config.FinalizedConfig, error) {
	var cfg config.FinalizedConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to decode worker config")
	}
	if cfg.CredentialFilename == "" || cfg.SharedURL == "" {
		return cfg, errors.New("worker config requires cookie_file and url")
	}
	if cfg.CookiePath == "" {
		return cfg, errors.New("worker config requires cookie_path")
	}
	return cfg, nil
}
