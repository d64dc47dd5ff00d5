package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// TimestampFormat 日志时间格式
const TimestampFormat = "2006-01-02 15:04:05"

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// SetupGlobalLogger 设置全局日志记录器
// 日志追加写入 logFile，console 为 true 时同时输出到控制台；
// 返回的 Closer 关闭日志文件并把输出恢复到 stderr
func SetupGlobalLogger(logFile string, console bool) (io.Closer, error) {
	// 确保日志目录存在
	dir := filepath.Dir(logFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("创建日志目录失败 %s: %v (提示: 请检查目录写权限)", dir, err)
		}
		return nil, fmt.Errorf("创建日志目录失败 %s: %v", dir, err)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败 %s: %v (提示: 确保目录存在且有写权限)", logFile, err)
	}

	var out io.Writer = file
	if console {
		out = io.MultiWriter(os.Stdout, file)
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
	})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Infof("日志输出到文件: %s", logFile)

	return closerFunc(func() error {
		logrus.SetOutput(os.Stderr)
		return file.Close()
	}), nil
}

// SetupWorkerLogger 子进程日志写到 w（由启动器接管并加上时间与 profile 字段）
func SetupWorkerLogger(w io.Writer) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	logrus.SetLevel(logrus.InfoLevel)
}
