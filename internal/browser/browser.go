package browser

import (
	"strings"

	"camoufox-launcher/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Browser 浏览器实例
type Browser struct {
	*rod.Browser
	launcher *launcher.Launcher
}

// Mode 浏览器显示模式
type Mode int

const (
	// ModeVirtual 有界面浏览器运行在 XVFB 虚拟显示器中
	ModeVirtual Mode = iota
	// ModeHeadless 无头模式
	ModeHeadless
	// ModeHeadful 直接使用当前显示器
	ModeHeadful
)

// ParseMode 解析 CAMOUFOX_HEADLESS 的取值
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "virtual":
		return ModeVirtual, nil
	case "true", "1", "headless":
		return ModeHeadless, nil
	case "false", "0", "headful":
		return ModeHeadful, nil
	default:
		return 0, errors.Errorf("unknown headless mode %q", raw)
	}
}

// newLauncher 按配置构建浏览器启动参数
func newLauncher(cfg config.FinalizedConfig) (*launcher.Launcher, error) {
	mode, err := ParseMode(cfg.HeadlessMode)
	if err != nil {
		return nil, err
	}

	// 每个实例使用独立的临时 user-data-dir
	l := launcher.New().Leakless(true)
	switch mode {
	case ModeVirtual:
		// 多个实例同时运行，由 xvfb-run 自动挑选空闲的显示编号
		l = l.Headless(false).XVFB("--auto-servernum", "--server-args=-screen 0 1600x900x16")
	case ModeHeadless:
		l = l.Headless(true)
	case ModeHeadful:
		l = l.Headless(false)
	}

	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	return l, nil
}

// NewBrowser 启动本地浏览器并建立连接
func NewBrowser(cfg config.FinalizedConfig) (*Browser, error) {
	logrus.Info("启动浏览器...")

	l, err := newLauncher(cfg)
	if err != nil {
		return nil, err
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errors.Wrap(err, "failed to connect to browser")
	}

	logrus.Info("浏览器连接成功")
	return &Browser{Browser: b, launcher: l}, nil
}

// Close 关闭浏览器并清理临时目录
func (b *Browser) Close() {
	logrus.Info("关闭浏览器...")

	if b.Browser != nil {
		if err := b.Browser.Close(); err != nil {
			logrus.Warnf("关闭浏览器失败: %v", err)
			b.launcher.Kill()
		}
	}
	b.launcher.Cleanup()

	logrus.Info("浏览器已关闭")
}
