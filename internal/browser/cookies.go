package browser

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
)

// CookieJar 一个 profile 对应的 cookie 文件
type CookieJar struct {
	path string
}

// NewCookieJar 创建指定 cookie 文件的 CookieJar
func NewCookieJar(path string) *CookieJar {
	return &CookieJar{path: path}
}

// Path 返回 cookie 文件路径
func (c *CookieJar) Path() string {
	return c.path
}

// Load 读取 cookie 文件并转换为浏览器可用的参数
func (c *CookieJar) Load() ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cookies file")
	}
	return ParseCookies(data)
}

// cookieRecord 兼容浏览器导出与 storage state 两种格式的字段
type cookieRecord struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Expires  *float64 `json:"expires"`
	// 部分浏览器插件导出为 expirationDate
	ExpirationDate *float64 `json:"expirationDate"`
	HTTPOnly       bool     `json:"httpOnly"`
	Secure         bool     `json:"secure"`
	SameSite       string   `json:"sameSite"`
}

type storageState struct {
	Cookies []cookieRecord `json:"cookies"`
}

// ParseCookies 解析 cookie JSON，支持 cookie 数组或 {"cookies": [...]} 格式
func ParseCookies(data []byte) ([]*proto.NetworkCookieParam, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("cookies file is empty")
	}

	var records []cookieRecord
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal cookies")
		}
	case '{':
		var state storageState
		if err := json.Unmarshal(trimmed, &state); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal cookies")
		}
		records = state.Cookies
	default:
		return nil, errors.New("cookies file must hold a JSON array or object")
	}

	params := make([]*proto.NetworkCookieParam, 0, len(records))
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		param := &proto.NetworkCookieParam{
			Name:     r.Name,
			Value:    r.Value,
			Domain:   r.Domain,
			Path:     r.Path,
			Secure:   r.Secure,
			HTTPOnly: r.HTTPOnly,
			SameSite: normalizeSameSite(r.SameSite),
		}
		// 未设置或为 -1 时是会话 cookie
		if expires := firstPositive(r.Expires, r.ExpirationDate); expires > 0 {
			param.Expires = proto.TimeSinceEpoch(expires)
		}
		params = append(params, param)
	}

	return params, nil
}

func firstPositive(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

func normalizeSameSite(raw string) proto.NetworkCookieSameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "none", "no_restriction":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
