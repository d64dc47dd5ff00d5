package utils

import "path/filepath"

const (
	cookiesDirName = "cookies"
	logsDirName    = "logs"
	appLogName     = "app.log"
)

// CookiesDir 存放 profile cookie 文件的目录: <base>/cookies
func CookiesDir(base string) string {
	return filepath.Join(base, cookiesDirName)
}

// LogsDir 日志目录: <base>/logs
func LogsDir(base string) string {
	return filepath.Join(base, logsDirName)
}

// AppLogFile 本次运行的日志文件: <base>/logs/app.log
func AppLogFile(base string) string {
	return filepath.Join(LogsDir(base), appLogName)
}
