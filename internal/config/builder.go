package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

type builder struct {
	configs []*Config
	err     error
}

func newBuilder() *builder {
	return &builder{
		configs: make([]*Config, 0, 4),
	}
}

// build merges the collected configs; earlier sources take precedence.
func (b *builder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("building config: %w", b.err)
	}

	cfg := new(Config)
	for _, c := range b.configs {
		if err := mergo.Merge(cfg, c); err != nil {
			return nil, fmt.Errorf("merging configs: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *builder) withEnv() *builder {
	envCfg := &Config{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, envCfg)
	return b
}

func (b *builder) withFlags(args []string) *builder {
	flagCfg, err := parseFlags(args)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, flagCfg)
	return b
}

func (b *builder) withFile() *builder {
	var path string
	for _, c := range b.configs {
		if c.File != "" {
			path = c.File
			break
		}
	}
	if path == "" {
		return b
	}

	fileCfg, err := parseFile(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, fileCfg)
	return b
}

func (b *builder) withDefaults() *builder {
	b.configs = append(b.configs, defaults())
	return b
}
