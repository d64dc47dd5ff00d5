package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/metrics"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrPathComponent = errors.New("cookie_file must be a bare file name")
	ErrExtension     = errors.New("cookie_file must be a .json file")
	ErrOutsideDir    = errors.New("cookie_file must resolve inside the cookies directory")
	ErrIncomplete    = errors.New("merged config is missing cookie_file or url")
)

// RejectionError 单个 profile 校验失败，只跳过该 profile，不会终止本次运行
type RejectionError struct {
	Filename string
	Err      error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("profile %q rejected: %v", e.Filename, e.Err)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// Reason 返回用于指标标签的拒绝原因
func (e *RejectionError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrPathComponent):
		return "path_component"
	case errors.Is(e.Err, ErrExtension):
		return "extension"
	case errors.Is(e.Err, ErrOutsideDir):
		return "outside_dir"
	case errors.Is(e.Err, ErrIncomplete):
		return "incomplete"
	default:
		return "unknown"
	}
}

// Validator 将全局配置与 profile 合并并做文件系统安全校验
type Validator struct {
	dir     string
	metrics metrics.Collector
}

// NewValidator 创建校验器，dir 会被解析为绝对路径并跟随符号链接
func NewValidator(dir string, mc metrics.Collector) (*Validator, error) {
	root, err := resolve(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrProfilesDirMissing, "%s: %v", dir, err)
	}
	if mc == nil {
		mc = metrics.NewNoopCollector()
	}
	return &Validator{dir: root, metrics: mc}, nil
}

// Dir 返回解析后的 cookies 目录
func (v *Validator) Dir() string {
	return v.dir
}

// Validate 合并配置后依次检查：不含路径、扩展名、解析后仍在 cookies 目录内、字段完整
// 任意一项失败立即返回 *RejectionError
func (v *Validator) Validate(g config.GlobalSettings, p config.ProfileDescriptor) (config.FinalizedConfig, error) {
	cfg := config.Merge(g, p)
	name := cfg.CredentialFilename

	reject := func(err error) (config.FinalizedConfig, error) {
		return config.FinalizedConfig{}, &RejectionError{Filename: name, Err: err}
	}

	if name == "" || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return reject(ErrPathComponent)
	}

	if !HasCredentialExt(name) {
		return reject(ErrExtension)
	}

	resolved, err := resolve(filepath.Join(v.dir, name))
	if err != nil {
		return reject(errors.Wrap(ErrOutsideDir, err.Error()))
	}
	if !within(v.dir, resolved) {
		return reject(ErrOutsideDir)
	}

	if cfg.CredentialFilename == "" || cfg.SharedURL == "" {
		return reject(ErrIncomplete)
	}

	cfg.CookiePath = resolved
	return cfg, nil
}

// Accept 逐个校验 profile，记录接受或拒绝日志，返回通过校验的配置（保持发现顺序）
func (v *Validator) Accept(g config.GlobalSettings, profiles []config.ProfileDescriptor) []config.FinalizedConfig {
	accepted := make([]config.FinalizedConfig, 0, len(profiles))
	for _, p := range profiles {
		log := logrus.WithField("profile", p.CredentialFilename)

		cfg, err := v.Validate(g, p)
		if err != nil {
			var rejection *RejectionError
			if errors.As(err, &rejection) {
				v.metrics.ProfileRejected(rejection.Reason())
			}
			log.Errorf("跳过无效的 cookie 配置: %v", err)
			continue
		}

		log.Infof("cookie 配置校验通过: %s", cfg.CookiePath)
		accepted = append(accepted, cfg)
	}
	return accepted
}

// resolve 返回绝对路径；路径存在时跟随符号链接
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// 悬空的符号链接无法确认指向位置
		if _, lerr := os.Lstat(abs); os.IsNotExist(err) && os.IsNotExist(lerr) {
			return abs, nil
		}
		return "", err
	}
	return target, nil
}

// within 判断 path 是否严格位于 root 之下
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
