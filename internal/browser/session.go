// Package browser is the worker side of the launcher: one process runs one
// go-rod browser session with a profile's cookies until it is told to stop.
package browser

import (
	"context"

	"camoufox-launcher/internal/config"

	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Run 启动浏览器、加载 cookie、打开共享 URL，然后保持会话直到 ctx 结束
func Run(ctx context.Context, cfg config.FinalizedConfig) error {
	log := logrus.WithField("profile", cfg.CredentialFilename)

	if cfg.CookiePath == "" || cfg.SharedURL == "" {
		return errors.New("worker config is missing cookie path or url")
	}

	// 先读取 cookie，文件有问题时不必启动浏览器
	cookies, err := NewCookieJar(cfg.CookiePath).Load()
	if err != nil {
		return err
	}
	log.Infof("已读取 %d 个 cookie", len(cookies))

	b, err := NewBrowser(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if len(cookies) > 0 {
		if err := b.SetCookies(cookies); err != nil {
			return errors.Wrap(err, "failed to set cookies")
		}
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return errors.Wrap(err, "failed to open page")
	}
	pp := page.Context(ctx)

	if err := pp.Navigate(cfg.SharedURL); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrapf(err, "failed to open %s", cfg.SharedURL)
	}
	if err := pp.WaitLoad(); err != nil && ctx.Err() == nil {
		log.Warnf("等待页面加载失败: %v", err)
	}
	log.Infof("已打开目标页面: %s", cfg.SharedURL)

	<-ctx.Done()
	log.Info("收到终止信号，正在关闭浏览器...")
	return nil
}
