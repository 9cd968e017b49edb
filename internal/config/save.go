package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/log"
)

// SaveSetting sets one dotted key (e.g. "reintest.testHighlightColor" or
// "ui.mode") in the config file, creating the file and intermediate
// mappings as needed. Comments and formatting elsewhere are preserved by
// editing the yaml.Node tree.
func SaveSetting(configPath, key, value string) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key %q", key)
		}
	}

	scalar := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if s, ok := decoration.LookupSetting(key); ok {
		if _, err := decoration.ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", s.FullKey(), err)
		}
		parts = strings.Split(s.FullKey(), ".")
		scalar.Tag = "!!str"
		scalar.Style = yaml.DoubleQuotedStyle
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	if err := setPath(doc.Content[0], parts, scalar); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := writeAtomic(configPath, buf.Bytes()); err != nil {
		return err
	}
	log.Info(log.CatConfig, "saved setting", "path", configPath, "key", key)
	return nil
}

// setPath walks or creates nested mappings along parts and sets the leaf.
func setPath(mapping *yaml.Node, parts []string, leaf *yaml.Node) error {
	for i, part := range parts {
		last := i == len(parts)-1

		var next *yaml.Node
		for j := 0; j+1 < len(mapping.Content); j += 2 {
			if mapping.Content[j].Value == part {
				next = mapping.Content[j+1]
				if last {
					// keep the comments attached to the old value
					leaf.LineComment = next.LineComment
					leaf.HeadComment = next.HeadComment
					mapping.Content[j+1] = leaf
					return nil
				}
				break
			}
		}

		if last {
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: part}, leaf)
			return nil
		}

		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode}
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: part}, next)
		}
		if next.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(parts[:i+1], "."))
		}
		mapping = next
	}
	return nil
}

// writeAtomic writes to a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".reintest.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
