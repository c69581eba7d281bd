package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// DownloadFields 提供缓存键、远程地址、本地路径与命中状态字段，供下载日志复用。
func DownloadFields(cacheKey, url, localPath string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"cache_key":  cacheKey,
		"url":        url,
		"local_path": localPath,
		"cache_hit":  cacheHit,
	}
}

// ReferenceFields 描述文档中的一个引用（引用类别 + 属性 + 地址）。
func ReferenceFields(class, attr, url string) logrus.Fields {
	return logrus.Fields{
		"class": class,
		"attr":  attr,
		"url":   url,
	}
}
