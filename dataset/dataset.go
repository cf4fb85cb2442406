// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/penny-vault/pvtargets/data"
	"github.com/spf13/viper"
)

var (
	ErrUnknownBackend = errors.New("unknown dataset backend")
	ErrRequestFailed  = errors.New("datatable request failed")
)

// Backend names accepted by the dataset.backend configuration key.
const (
	FilesBackend    = "files"
	DatabaseBackend = "database"
	NasdaqBackend   = "nasdaq"
)

// Map describes every backend for display in the CLI.
var Map = map[string]string{
	FilesBackend:    "Per-ticker datatable JSON files under dataset.dir, as written by a bulk download.",
	DatabaseBackend: "PostgreSQL database at db.url; tables are created by `pvtargets init`.",
	NasdaqBackend:   "Live queries against the Nasdaq Data Link datatable API using nasdaq.api_key.",
}

// Info summarizes the coverage of a backend for the info command.
type Info struct {
	Backend         string
	NumCompanies    int
	NumFundamentals int
	NumMetrics      int
	FirstReport     time.Time
	LastReport      time.Time
	LastMetric      time.Time
}

// Describer is an optional capability a backend may implement to report
// coverage statistics.
type Describer interface {
	Describe(ctx context.Context) (*Info, error)
}

// New builds the provider a backend name selects, reading its settings from
// viper.
func New(ctx context.Context, backend string) (data.Provider, error) {
	switch backend {
	case FilesBackend:
		return NewFiles(viper.GetString("dataset.dir"))
	case DatabaseBackend:
		return NewDatabase(ctx, viper.GetString("db.url"))
	case NasdaqBackend:
		return NewNasdaq(viper.GetString("nasdaq.api_key"), viper.GetInt("nasdaq.rate_limit")), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
}
