package rewrite

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ReferenceClass 描述一类需要改写的引用：用哪个选择器找元素、改写哪个属性。
type ReferenceClass struct {
	Key         string
	Description string
	Selector    string
	Attr        string
	// Order 决定各遍的执行顺序，数值小的先执行。
	Order int
	// Optional 的类别需要显式打开，例如图片。
	Optional bool
}

const (
	ClassStylesheet = "stylesheet"
	ClassScript     = "script"
	ClassImage      = "image"
)

var globalRegistry = newRegistry()

func init() {
	MustRegister(ReferenceClass{
		Key:         ClassStylesheet,
		Description: "外链样式表 <link rel=stylesheet href>",
		Selector:    `link[rel="stylesheet"][href]`,
		Attr:        "href",
		Order:       10,
	})
	MustRegister(ReferenceClass{
		Key:         ClassScript,
		Description: "外链脚本 <script src>",
		Selector:    "script[src]",
		Attr:        "src",
		Order:       20,
	})
	// 远程图片默认在线加载，缓存它们只会浪费带宽与磁盘。
	MustRegister(ReferenceClass{
		Key:         ClassImage,
		Description: "图片 <img src>",
		Selector:    "img[src]",
		Attr:        "src",
		Order:       30,
		Optional:    true,
	})
}

type registry struct {
	mu      sync.RWMutex
	classes map[string]ReferenceClass
}

func newRegistry() *registry {
	return &registry{classes: make(map[string]ReferenceClass)}
}

// Register 将引用类别加入全局注册表，重复键会返回错误。
func Register(class ReferenceClass) error {
	return globalRegistry.register(class)
}

// MustRegister 在注册失败时 panic，适合 init() 中调用。
func MustRegister(class ReferenceClass) {
	if err := Register(class); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的引用类别。
func Resolve(key string) (ReferenceClass, bool) {
	return globalRegistry.resolve(key)
}

// List 返回按 Order（其次按键）排序的引用类别。
func List() []ReferenceClass {
	return globalRegistry.list()
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(class ReferenceClass) error {
	key := normalizeKey(class.Key)
	if key == "" {
		return fmt.Errorf("reference class key is required")
	}
	if strings.TrimSpace(class.Selector) == "" || strings.TrimSpace(class.Attr) == "" {
		return fmt.Errorf("reference class %s requires selector and attr", key)
	}
	class.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[key]; exists {
		return fmt.Errorf("reference class %s already registered", key)
	}
	r.classes[key] = class
	return nil
}

func (r *registry) resolve(key string) (ReferenceClass, bool) {
	normalized := normalizeKey(key)
	if normalized == "" {
		return ReferenceClass{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	class, ok := r.classes[normalized]
	return class, ok
}

func (r *registry) list() []ReferenceClass {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ReferenceClass, 0, len(r.classes))
	for _, class := range r.classes {
		result = append(result, class)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Key < result[j].Key
	})
	return result
}
