// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package ecsconfig loads the handful of tunables a world needs at
// construction time from a YAML file, the same definition.yaml shape
// sneller's db package reads table configuration from.
package ecsconfig

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/ecs"
)

// Config holds world construction tunables. Load replaces zero-valued
// page shifts and MaxTickDelta with Defaults' values; a zero
// WorkerCount is kept and means serial execution.
type Config struct {
	PageShiftDense  uint `json:"pageShiftDense,omitempty"`
	PageShiftSparse uint `json:"pageShiftSparse,omitempty"`
	WorkerCount     int  `json:"workerCount,omitempty"`
	MaxTickDelta    int  `json:"maxTickDelta,omitempty"`
}

// Defaults returns the configuration a world uses when none is given.
func Defaults() Config {
	return Config{
		PageShiftDense:  column.DenseShift,
		PageShiftSparse: column.SparseShift,
		WorkerCount:     0, // 0 means serial execution; positive values bound ParallelExecutor
		MaxTickDelta:    int(ecs.MaxTickDelta),
	}
}

// Load reads and parses a YAML config file at path, then fills any
// zero-valued field from Defaults().
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("ecsconfig: reading %s: %w", path, err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("ecsconfig: parsing %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.PageShiftDense == 0 {
		c.PageShiftDense = d.PageShiftDense
	}
	if c.PageShiftSparse == 0 {
		c.PageShiftSparse = d.PageShiftSparse
	}
	if c.MaxTickDelta == 0 {
		c.MaxTickDelta = d.MaxTickDelta
	}
	return c
}
