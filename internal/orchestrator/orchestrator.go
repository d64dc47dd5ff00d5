package orchestrator

import (
	"context"
	"os"
	"time"

	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/logger"
	"camoufox-launcher/internal/metrics"
	"camoufox-launcher/internal/profile"
	"camoufox-launcher/internal/server"
	"camoufox-launcher/internal/supervisor"
	"camoufox-launcher/internal/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Orchestrator 启动器主流程：读取配置、扫描 cookie、校验、按间隔启动并监督子进程
type Orchestrator struct {
	// BaseDir 下包含 cookies/ 与 logs/
	BaseDir string
	Env     *viper.Viper
	Spawner supervisor.Spawner
	// Console 为 true 时日志同时输出到控制台
	Console bool
}

// Run 执行一次完整的启动流程，配置错误会记录日志并返回
func (o *Orchestrator) Run(ctx context.Context) error {
	cookiesDir := utils.CookiesDir(o.BaseDir)
	if err := os.MkdirAll(utils.LogsDir(o.BaseDir), 0755); err != nil {
		return errors.Wrap(err, "failed to create logs directory")
	}
	if err := os.MkdirAll(cookiesDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create cookies directory")
	}

	closer, err := logger.SetupGlobalLogger(utils.AppLogFile(o.BaseDir), o.Console)
	if err != nil {
		return err
	}
	defer closer.Close()

	logrus.Info("---------------------Camoufox 实例管理器开始启动---------------------")

	err = o.run(ctx, cookiesDir)
	if err != nil {
		if errors.Is(err, config.ErrConfiguration) {
			logrus.Errorf("配置错误，停止启动: %v", err)
		} else {
			logrus.Errorf("运行失败: %v", err)
		}
	}
	return err
}

func (o *Orchestrator) run(ctx context.Context, cookiesDir string) error {
	settings, err := config.LoadGlobalSettings(o.Env)
	if err != nil {
		return err
	}
	opts, err := config.LoadLaunchOptions(o.Env)
	if err != nil {
		return err
	}

	profiles, err := profile.Discover(cookiesDir)
	if err != nil {
		return err
	}
	logrus.Infof("在 %s 中找到 %d 个 cookie 文件，将为每个文件启动一个实例。", cookiesDir, len(profiles))
	logrus.Infof("所有实例将访问同一个 URL: %s", settings.SharedURL)

	collector := metrics.NewPrometheusCollector("")

	validator, err := profile.NewValidator(cookiesDir, collector)
	if err != nil {
		return err
	}
	configs := validator.Accept(settings, profiles)

	sup := supervisor.New(o.Spawner,
		supervisor.WithPacer(supervisor.Pacer{Interval: opts.LaunchInterval, SkipAfterLast: true}),
		supervisor.WithKillAfter(opts.KillAfter),
		supervisor.WithMetricsCollector(collector),
	)

	if opts.StatusAddr != "" {
		srv := server.NewHTTPServer(sup, collector.Handler())
		go func() {
			if err := srv.Start(opts.StatusAddr); err != nil {
				logrus.Errorf("状态服务器启动失败: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logrus.Errorf("状态服务器关闭失败: %v", err)
			}
		}()
	}

	return sup.Run(ctx, configs)
}
