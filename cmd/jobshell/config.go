package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nixpig/jobshell/internal/shell"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type config struct {
	prompt     string
	noPrompt   bool
	verbose    bool
	configPath string
}

// fileConfig is the layout of the optional YAML config file. Pointer fields
// tell unset keys apart from zero values.
type fileConfig struct {
	Prompt     *string `yaml:"prompt"`
	Verbose    *bool   `yaml:"verbose"`
	EmitPrompt *bool   `yaml:"emit_prompt"`
}

func bindFlags(fs *pflag.FlagSet, cfg *config) {
	fs.BoolVarP(
		&cfg.verbose,
		"verbose",
		"v",
		false,
		"Print additional diagnostic information",
	)

	fs.BoolVarP(
		&cfg.noPrompt,
		"no-prompt",
		"p",
		false,
		"Do not emit a command prompt",
	)

	fs.StringVar(&cfg.prompt, "prompt", shell.DefaultPrompt, "Command prompt")

	fs.StringVar(
		&cfg.configPath,
		"config",
		"",
		"Path to YAML config file",
	)
}

// load applies the config file, if one is given, to every setting whose flag
// was not set on the command line.
func (c *config) load(fs *pflag.FlagSet) error {
	if c.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Prompt != nil && !fs.Changed("prompt") {
		c.prompt = *fc.Prompt
	}

	if fc.Verbose != nil && !fs.Changed("verbose") {
		c.verbose = *fc.Verbose
	}

	if fc.EmitPrompt != nil && !fs.Changed("no-prompt") {
		c.noPrompt = !*fc.EmitPrompt
	}

	return nil
}

func (c *config) validate() error {
	if !c.noPrompt && c.prompt == "" {
		return errors.New("prompt cannot be empty")
	}

	if strings.ContainsAny(c.prompt, "\r\n") {
		return errors.New("prompt cannot contain line breaks")
	}

	return nil
}
