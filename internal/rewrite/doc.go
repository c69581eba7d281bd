// Package rewrite 负责把一段保存的 HTML 改写为可离线运行的版本：
// 解析文档，按引用类别（样式表、脚本、可选的图片）逐遍扫描远程引用，
// 通过 cache.Downloader 落盘后把属性替换为本地路径，再序列化完整文档。
//
// 单个资源失败不会中断整体流程，只有文档无法解析时 Handle 才返回错误。
//
// 本包与 sandbox 的测试使用 testify 断言；cache、config、logging、server
// 等基础设施包沿用标准库 testing 加 t.Fatalf 的写法。
package rewrite
