package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// 环境变量统一使用 CAMOUFOX_ 前缀，例如 CAMOUFOX_INSTANCE_URL
const EnvPrefix = "CAMOUFOX"

const (
	keyInstanceURL    = "instance_url"
	keyHeadless       = "headless"
	keyProxy          = "proxy"
	keyLaunchInterval = "launch_interval"
	keyKillAfter      = "kill_after"
	keyStatusAddr     = "status_addr"
)

const (
	// DefaultHeadlessMode 默认使用虚拟显示器运行有界面浏览器
	DefaultHeadlessMode = "virtual"
	// DefaultLaunchInterval 相邻两个实例的启动间隔
	DefaultLaunchInterval = 30 * time.Second
)

// GlobalSettings 所有实例共享的配置，进程启动时构建一次，之后不再修改
type GlobalSettings struct {
	HeadlessMode string
	SharedURL    string
	Proxy        string // 为空表示不使用代理
}

// LaunchOptions 启动器自身的运行参数
type LaunchOptions struct {
	LaunchInterval time.Duration
	// KillAfter 为 0 时终止阶段无限等待子进程退出
	KillAfter  time.Duration
	StatusAddr string
}

// NewEnv 创建只读取环境变量的 viper 实例
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// LoadGlobalSettings 从环境变量读取共享配置，缺少共享 URL 时返回配置错误
func LoadGlobalSettings(v *viper.Viper) (GlobalSettings, error) {
	sharedURL := cleanValue(v.GetString(keyInstanceURL))
	if sharedURL == "" {
		return GlobalSettings{}, ErrMissingSharedURL
	}

	headless := cleanValue(v.GetString(keyHeadless))
	if headless == "" {
		headless = DefaultHeadlessMode
	}

	return GlobalSettings{
		HeadlessMode: headless,
		SharedURL:    sharedURL,
		Proxy:        cleanValue(v.GetString(keyProxy)),
	}, nil
}

// LoadLaunchOptions 读取启动间隔、强制终止宽限期和状态服务地址
func LoadLaunchOptions(v *viper.Viper) (LaunchOptions, error) {
	opts := LaunchOptions{
		LaunchInterval: DefaultLaunchInterval,
		StatusAddr:     cleanValue(v.GetString(keyStatusAddr)),
	}

	if raw := cleanValue(v.GetString(keyLaunchInterval)); raw != "" {
		d, err := parseDuration(keyLaunchInterval, raw)
		if err != nil {
			return LaunchOptions{}, err
		}
		opts.LaunchInterval = d
	}

	if raw := cleanValue(v.GetString(keyKillAfter)); raw != "" {
		d, err := parseDuration(keyKillAfter, raw)
		if err != nil {
			return LaunchOptions{}, err
		}
		opts.KillAfter = d
	}

	return opts, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, NewError(envName(key) + " must be a non-negative duration, got " + raw)
	}
	return d, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// cleanValue 去除首尾空白，空字符串视为未设置
func cleanValue(raw string) string {
	return strings.TrimSpace(raw)
}

// ProfileDescriptor 扫描 cookies 目录得到的一个候选凭据文件
type ProfileDescriptor struct {
	CredentialFilename string
}

// FinalizedConfig 交给单个 worker 的最终配置，跨进程传递所以带 json 标签
type FinalizedConfig struct {
	HeadlessMode       string `json:"headless"`
	SharedURL          string `json:"url"`
	Proxy              string `json:"proxy,omitempty"`
	CredentialFilename string `json:"cookie_file"`
	// CookiePath 校验通过后解析出的绝对路径
	CookiePath string `json:"cookie_path,omitempty"`
}

// Merge 合并全局配置与单个 profile，profile 中的非空字段优先
func Merge(g GlobalSettings, p ProfileDescriptor) FinalizedConfig {
	cfg := FinalizedConfig{
		HeadlessMode: g.HeadlessMode,
		SharedURL:    g.SharedURL,
		Proxy:        g.Proxy,
	}
	if p.CredentialFilename != "" {
		cfg.CredentialFilename = p.CredentialFilename
	}
	return cfg
}

// Error 配置错误，会在启动任何实例之前终止本次运行
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// Is 让所有配置错误都能匹配 ErrConfiguration
func (e *Error) Is(target error) bool { return target == ErrConfiguration }

// NewError 创建一个配置错误
func NewError(msg string) error {
	return &Error{msg: msg}
}

var (
	// ErrConfiguration 所有配置错误的分类哨兵
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingSharedURL 缺少 CAMOUFOX_INSTANCE_URL
	ErrMissingSharedURL = NewError("missing shared endpoint: " + envName(keyInstanceURL) + " is not set")
)
