package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/nerdneilsfield/quizmark/pkg/core"
)

// ItemFile TOML 题目文件
//
//	[[item]]
//	id = "q1"
//	question = "..."
type ItemFile struct {
	Title string      `toml:"title"`
	Items []core.Item `toml:"item"`
}

// LoadItems 读取 TOML 题目文件
func LoadItems(path string) (*ItemFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("item file not found: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item file: %w", err)
	}

	file := &ItemFile{}
	if err := toml.Unmarshal(content, file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item file: %w", err)
	}

	seen := make(map[string]bool, len(file.Items))
	for i, it := range file.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item %d is missing id", i+1)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = true
	}
	return file, nil
}
