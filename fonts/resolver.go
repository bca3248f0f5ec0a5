package fonts

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ByLCY/labelkit/binding"
)

// ErrFontNotFound 表示覆盖路径与候选路径中都没有可用字体文件。
var ErrFontNotFound = errors.New("fonts: 未找到字体文件")

// DefaultFamily 是首选的展示字体。
const DefaultFamily = "Anton"

// DefaultCandidates 是按顺序搜索的候选路径，${family} 会被替换为字体族名，支持 ** 通配。
var DefaultCandidates = []string{
	"fonts/${family}-Regular.ttf",
	"assets/fonts/${family}-Regular.ttf",
	"/usr/share/fonts/truetype/**/${family}-Regular.ttf",
	"/usr/local/share/fonts/**/${family}-Regular.ttf",
}

// Resolver 将字体族名解析为本地字体文件路径，结果按族名缓存，可在多个渲染间共享。
type Resolver struct {
	Override   string   // 非空时只认该路径（来自配置或 LABELKIT_FONT_PATH）
	Candidates []string // 为空时使用 DefaultCandidates

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver with the given override path and candidate patterns.
func NewResolver(override string, candidates []string) *Resolver {
	return &Resolver{Override: override, Candidates: candidates}
}

// Resolve 返回 family 对应的字体文件路径；找不到时返回 ErrFontNotFound。
func (r *Resolver) Resolve(family string) (string, error) {
	if family == "" {
		family = DefaultFamily
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache[family]; ok {
		return p, nil
	}

	path, err := r.lookup(family)
	if err != nil {
		return "", err
	}
	if r.cache == nil {
		r.cache = map[string]string{}
	}
	r.cache[family] = path
	return path, nil
}

func (r *Resolver) lookup(family string) (string, error) {
	if r.Override != "" {
		if isFile(r.Override) {
			return r.Override, nil
		}
		return "", fmt.Errorf("%w: 覆盖路径 %s 不存在", ErrFontNotFound, r.Override)
	}
	candidates := r.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	data := map[string]interface{}{"family": family}
	for _, pattern := range candidates {
		p := binding.Interpolate(pattern, data)
		if !strings.ContainsAny(p, "*?[{") {
			if isFile(p) {
				return p, nil
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if isFile(m) {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s（已搜索 %d 个候选路径）", ErrFontNotFound, family, len(candidates))
}

// Load 读取 family 对应的字体文件。
func (r *Resolver) Load(family string) ([]byte, string, error) {
	path, err := r.Resolve(family)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, path, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
