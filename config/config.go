/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the engine's runtime settings: which model backend
// to call, where the knowledge base MCP server lives, and where persisted
// translation state and the terminology cache are stored.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/okidoki/doctranslate/llm"
)

// Config holds every setting the CLI and the engine need at startup. Zero
// values are filled in by Load's defaults, then overridden by config file
// and environment in viper's usual precedence order.
type Config struct {
	Model ModelSettings `mapstructure:"model"`
	KB    KBSettings    `mapstructure:"knowledge_base"`

	// StorePath is the sqlite file backing persisted translation state
	// (C10) and the terminology cache (C4). "memory" uses an in-process
	// store instead, useful for one-shot CLI runs with nothing to resume.
	StorePath string `mapstructure:"store_path"`

	DefaultTargetLanguage string `mapstructure:"default_target_language"`
	MaxRetryPerBatch      int    `mapstructure:"max_retry_per_batch"`
}

type ModelSettings struct {
	Type        string  `mapstructure:"type"`
	Name        string  `mapstructure:"name"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutSec  int     `mapstructure:"timeout_seconds"`
	Retries     int     `mapstructure:"retries"`
}

type KBSettings struct {
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
	SSEURL   string   `mapstructure:"sse_url"`
	ToolName string   `mapstructure:"tool_name"`
}

// Load reads settings from, in increasing precedence: built-in defaults,
// a config file (explicit path, or .doctranslate.yaml discovered in the
// current directory or $HOME), and DOCTRANSLATE_-prefixed environment
// variables.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("doctranslate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(".doctranslate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs explicitly binds every settable key so AutomaticEnv resolves it
// during Unmarshal even for keys that carry no default (model.name,
// model.api_key, knowledge_base.command, ...) — a key viper's AutomaticEnv
// otherwise only notices once something else has already touched it.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"model.type", "model.name", "model.base_url", "model.api_key",
		"model.temperature", "model.max_tokens", "model.timeout_seconds", "model.retries",
		"knowledge_base.command", "knowledge_base.args", "knowledge_base.sse_url", "knowledge_base.tool_name",
		"store_path", "default_target_language", "max_retry_per_batch",
	} {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.type", "openai")
	v.SetDefault("model.max_tokens", 16*1024)
	v.SetDefault("model.timeout_seconds", 600)
	v.SetDefault("model.retries", 3)
	v.SetDefault("knowledge_base.tool_name", "search_knowledge_base")
	v.SetDefault("store_path", "memory")
	v.SetDefault("default_target_language", "en")
	v.SetDefault("max_retry_per_batch", 2)
}

// Validate reports the settings combinations the engine can't run with.
func (c *Config) Validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}
	if llm.NewModelType(c.Model.Type) == llm.ModelTypeUnknown {
		return fmt.Errorf("model.type %q is not a recognized backend", c.Model.Type)
	}
	if c.MaxRetryPerBatch < 0 {
		return fmt.Errorf("max_retry_per_batch cannot be negative")
	}
	if c.KB.Command == "" && c.KB.SSEURL == "" {
		// Knowledge base is optional: C5 degrades gracefully without one.
		return nil
	}
	if c.KB.Command != "" && c.KB.SSEURL != "" {
		return fmt.Errorf("knowledge_base: set either command or sse_url, not both")
	}
	return nil
}

// ModelConfig adapts the loaded settings into llm.NewChatModel's config
// shape.
func (c *Config) ModelConfig() llm.ModelConfig {
	var temp *float32
	if c.Model.Temperature != 0 {
		t := c.Model.Temperature
		temp = &t
	}
	return llm.ModelConfig{
		Name:        c.Model.Name,
		APIType:     llm.NewModelType(c.Model.Type),
		BaseURL:     c.Model.BaseURL,
		APIKey:      c.Model.APIKey,
		ModelName:   c.Model.Name,
		Temperature: temp,
		MaxTokens:   c.Model.MaxTokens,
		Timeout:     time.Duration(c.Model.TimeoutSec) * time.Second,
		Retries:     c.Model.Retries,
	}
}

// HasKnowledgeBase reports whether enough is configured to start an MCP
// knowledge-base client.
func (c *Config) HasKnowledgeBase() bool {
	return c.KB.Command != "" || c.KB.SSEURL != ""
}

// KnowledgeBaseConfig adapts the loaded settings into
// llm.NewMCPKnowledgeBase's config shape. Only meaningful when
// HasKnowledgeBase reports true.
func (c *Config) KnowledgeBaseConfig() llm.MCPKnowledgeBaseConfig {
	return llm.MCPKnowledgeBaseConfig{
		Command:  c.KB.Command,
		Args:     c.KB.Args,
		SSEURL:   c.KB.SSEURL,
		ToolName: c.KB.ToolName,
	}
}
