package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"log": map[string]interface{}{
			"level": "info",
		},
		"command": map[string]interface{}{
			"timeout_seconds": 600, // xcodebuild on a cold cache is slow
		},
		"capture": map[string]interface{}{
			"dir":              "", // empty means the platform temp dir
			"retention_days":   3,
			"cleanup_schedule": "@hourly",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.xcode-mcp/config.yaml"
}
