// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"fmt"
	"os"

	log "github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk, YAML-encoded description of a reasoning run: the
// horizon to reason over, the evaluation mode, and any run limits. It is
// the deployable counterpart to Options, which callers building an Engine
// programmatically use directly.
type Config struct {
	Horizon          int      `yaml:"horizon"`
	Mode             string   `yaml:"mode"`
	CreatedFactLimit int      `yaml:"createdFactLimit"`
	RuleFiles        []string `yaml:"ruleFiles"`
	FactFiles        []string `yaml:"factFiles"`
}

// DefaultConfig returns the configuration a run uses when no file is
// present: semi-naive evaluation, no created-fact limit, horizon 0 (the
// caller is expected to override it once the input facts are known).
func DefaultConfig() *Config {
	return &Config{
		Horizon:          0,
		Mode:             "semi-naive",
		CreatedFactLimit: 0,
	}
}

// LoadConfig reads a YAML configuration from path, falling back to
// DefaultConfig when the file does not exist. Any other read or decode
// error is returned to the caller.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.V(1).Infof("no config file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ModeFromName parses a config's textual mode name into a Mode value,
// defaulting to SemiNaive for an empty or unrecognized string.
func ModeFromName(name string) Mode {
	switch name {
	case "naive":
		return Naive
	case "indexed":
		return Indexed
	case "semi-naive", "":
		return SemiNaive
	case "parallel":
		return Parallel
	default:
		log.Warningf("unknown evaluation mode %q, defaulting to semi-naive", name)
		return SemiNaive
	}
}

// Options converts the decoded Config into the Option values Reason
// expects.
func (c *Config) Options() []Option {
	return []Option{
		WithMode(ModeFromName(c.Mode)),
		WithCreatedFactLimit(c.CreatedFactLimit),
	}
}
