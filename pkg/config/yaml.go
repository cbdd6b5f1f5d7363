// Package config loads a pipeline definition — either the engine's
// native YAML schema or a legacy Maxwell Java-properties file — and
// builds the collectors, transformers, and dispatchers it describes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level native config shape: a tagged-enum-per-
// category list of collectors, transformers, and dispatchers, wired by
// the `id`/`destination` fields each component type carries.
type Pipeline struct {
	Collectors   []CollectorConfig   `yaml:"collectors"`
	Transformers []TransformerConfig `yaml:"transformers"`
	Dispatchers  []DispatcherConfig  `yaml:"dispatchers"`
}

// CollectorConfig is the YAML shape for a `type: Binlog` collector entry.
type CollectorConfig struct {
	Type        string `yaml:"type"`
	ID          string `yaml:"id"`
	Destination string `yaml:"destination"`
	Host        string `yaml:"host"`
	Port        uint16 `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
}

// RuleConfig is one entry of a BinlogFilter's rule list.
type RuleConfig struct {
	Database string  `yaml:"database"`
	Table    *string `yaml:"table"`
	Include  bool    `yaml:"include"`
}

// TransformerConfig is the YAML shape for a `type: BinlogFilter |
// EventReplicator` transformer entry. Only the fields relevant to Type
// are populated.
type TransformerConfig struct {
	Type         string       `yaml:"type"`
	ID           string       `yaml:"id"`
	Destination  string       `yaml:"destination"`  // BinlogFilter
	Destinations []string     `yaml:"destinations"` // EventReplicator
	Rules        []RuleConfig `yaml:"rules"`        // BinlogFilter
}

// DispatcherConfig is the YAML shape for a `type: Kafka | Redis |
// Elasticsearch` dispatcher entry. Only the fields relevant to Type are
// populated.
type DispatcherConfig struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`

	// Kafka
	Topic            string   `yaml:"topic"`
	BootstrapBrokers []string `yaml:"bootstrap_brokers"`
	Compression      string   `yaml:"compression"`

	// Redis
	Mode           string `yaml:"mode"` // LPush | RPush | Pub | XAdd
	Key            string `yaml:"key"`
	Channel        string `yaml:"channel"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Auth           string `yaml:"auth"`
	DatabaseNumber int    `yaml:"database_number"`

	// Elasticsearch
	URL   string `yaml:"url"`
	Index string `yaml:"index"`
}

// LoadYAML reads and parses a native pipeline config file.
func LoadYAML(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return &p, nil
}
