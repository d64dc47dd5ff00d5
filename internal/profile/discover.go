// Package profile discovers cookie credential files and turns each one into a
// validated per-instance configuration.
package profile

import (
	"os"
	"strings"

	"camoufox-launcher/internal/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CredentialExt cookie 凭据文件扩展名，比较时忽略大小写
const CredentialExt = ".json"

var (
	// ErrProfilesDirMissing cookies 目录不存在或不是目录
	ErrProfilesDirMissing = config.NewError("cookies directory not found")
	// ErrNoCredentialFiles cookies 目录下没有任何 .json 文件
	ErrNoCredentialFiles = config.NewError("no credential files found")
)

// Discover 扫描 cookies 目录，为每个 .json 文件生成一个 ProfileDescriptor
// 返回顺序与 os.ReadDir 一致（按文件名排序），同一次运行内稳定
func Discover(dir string) ([]config.ProfileDescriptor, error) {
	logrus.Infof("开始扫描 cookies 目录: %s", dir)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrProfilesDirMissing, "%s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrProfilesDirMissing, "%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(config.NewError("failed to read cookies directory"), "%s: %v", dir, err)
	}

	var profiles []config.ProfileDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !HasCredentialExt(entry.Name()) {
			continue
		}
		profiles = append(profiles, config.ProfileDescriptor{CredentialFilename: entry.Name()})
	}

	if len(profiles) == 0 {
		return nil, errors.Wrapf(ErrNoCredentialFiles, "no %s files in %s", CredentialExt, dir)
	}

	return profiles, nil
}

// HasCredentialExt 判断文件名是否以 .json 结尾（忽略大小写）
func HasCredentialExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), CredentialExt)
}
