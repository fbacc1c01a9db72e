// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/pdf-restamp/logger"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	MaxConcurrentDocs int            `toml:"max_concurrent_docs" validate:"min=1,max=10"`
	ParsingMode       ParsingMode    `toml:"parsing_mode" validate:"oneof=strict best-effort"`
	Substitutions     []Substitution `toml:"substitution" validate:"dive"`
	DebugOn           bool           `toml:"debug"`
	Logger            logger.LogFunc `toml:"-"`
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocs: 1,
		ParsingMode:       Strict,
		Substitutions:     DefaultSubstitutions(),
		DebugOn:           false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}

// LoadConfig reads a TOML file over the default config and validates the
// result. Substitutions listed in the file replace the defaults and keep
// their order:
//
//	parsing_mode = "best-effort"
//
//	[[substitution]]
//	placeholder = "%NAME%"
//	replacement = "Jane Doe"
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	var file struct {
		MaxConcurrentDocs *int           `toml:"max_concurrent_docs"`
		ParsingMode       *ParsingMode   `toml:"parsing_mode"`
		Substitutions     []Substitution `toml:"substitution"`
		DebugOn           *bool          `toml:"debug"`
	}
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	if file.MaxConcurrentDocs != nil {
		cfg.MaxConcurrentDocs = *file.MaxConcurrentDocs
	}
	if file.ParsingMode != nil {
		cfg.ParsingMode = *file.ParsingMode
	}
	if md.IsDefined("substitution") {
		cfg.Substitutions = file.Substitutions
	}
	if file.DebugOn != nil {
		cfg.DebugOn = *file.DebugOn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
