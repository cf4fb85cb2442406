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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/penny-vault/pvtargets/data"
	"github.com/rs/zerolog/log"
)

// Files reads a directory of datatable JSON files written by a bulk download:
// one quarterly file per ticker under core_fundamental/, one daily file per
// ticker under daily/, and a single tickers.json with company attributes.
// Each file holds a raw datatable response:
//
//	{"datatable": {"data": [[...], ...], "columns": [{"name": ...}, ...]}}
//
// Quarterly rows are filtered to the as-reported quarterly dimension when a
// dimension column is present.
type Files struct {
	Dir string
}

// Subdirectory and file names inside a dataset directory.
const (
	fundamentalsDir = "core_fundamental"
	metricsDir      = "daily"
	tickersFile     = "tickers.json"
)

type datatableDoc struct {
	Datatable struct {
		Data    [][]interface{} `json:"data"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
	} `json:"datatable"`
}

func NewFiles(dir string) (*Files, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	return &Files{Dir: dir}, nil
}

func (files *Files) LoadFundamentals(ctx context.Context, tickers []string) ([]*data.FundamentalRow, error) {
	rows := make([]*data.FundamentalRow, 0, 64)
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := files.readDatatable(filepath.Join(files.Dir, fundamentalsDir, ticker+".json"))
		if err != nil {
			return nil, err
		}
		if doc == nil {
			log.Debug().Str("Ticker", ticker).Msg("no fundamentals file for ticker")
			continue
		}
		tickerRows, err := fundamentalsFromDatatable(doc)
		if err != nil {
			return nil, fmt.Errorf("%w (ticker=%s)", err, ticker)
		}
		rows = append(rows, tickerRows...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].EventDate.Before(rows[j].EventDate)
	})
	return rows, nil
}

func (files *Files) LoadMetrics(ctx context.Context, tickers []string) ([]*data.MetricRow, error) {
	rows := make([]*data.MetricRow, 0, 256)
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := files.readDatatable(filepath.Join(files.Dir, metricsDir, ticker+".json"))
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// absent daily history is not an error
			continue
		}
		tickerRows, err := metricsFromDatatable(doc)
		if err != nil {
			return nil, fmt.Errorf("%w (ticker=%s)", err, ticker)
		}
		rows = append(rows, tickerRows...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].EventDate.Before(rows[j].EventDate)
	})
	return rows, nil
}

func (files *Files) LoadCompanyInfo(ctx context.Context) ([]*data.CompanyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := files.readDatatable(filepath.Join(files.Dir, tickersFile))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%s missing from dataset directory %s", tickersFile, files.Dir)
	}
	return companiesFromDatatable(doc)
}

// Describe scans the dataset directory for coverage statistics.
func (files *Files) Describe(ctx context.Context) (*Info, error) {
	info := &Info{Backend: FilesBackend}

	companies, err := files.LoadCompanyInfo(ctx)
	if err != nil {
		return nil, err
	}
	info.NumCompanies = len(companies)

	fundamentalFiles, err := os.ReadDir(filepath.Join(files.Dir, fundamentalsDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	info.NumFundamentals = len(fundamentalFiles)

	metricFiles, err := os.ReadDir(filepath.Join(files.Dir, metricsDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	info.NumMetrics = len(metricFiles)

	return info, nil
}

// readDatatable parses a single datatable JSON file. A missing file returns a
// nil document and no error.
func (files *Files) readDatatable(fn string) (*datatableDoc, error) {
	raw, err := os.ReadFile(fn)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc := &datatableDoc{}
	if err := json.Unmarshal(raw, doc); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse datatable file")
		return nil, err
	}
	return doc, nil
}

func fundamentalsFromDatatable(doc *datatableDoc) ([]*data.FundamentalRow, error) {
	columns := columnNames(doc)
	dateColumn := pickColumn(columns, "datekey", "date", "calendardate")
	if dateColumn < 0 {
		return nil, fmt.Errorf("datatable has no date column")
	}
	tickerColumn := pickColumn(columns, "ticker")
	dimensionColumn := pickColumn(columns, "dimension")

	rows := make([]*data.FundamentalRow, 0, len(doc.Datatable.Data))
	for _, cells := range doc.Datatable.Data {
		row := &data.FundamentalRow{Columns: make(map[string]float64, len(cells))}
		for cellIdx, cell := range cells {
			if cellIdx >= len(columns) {
				break
			}
			switch cellIdx {
			case tickerColumn:
				row.Ticker, _ = cell.(string)
			case dimensionColumn:
				row.Dimension, _ = cell.(string)
			case dateColumn:
				date, err := cellDate(cell)
				if err != nil {
					return nil, err
				}
				row.EventDate = date
			default:
				if value, ok := cellValue(cell); ok {
					row.Columns[columns[cellIdx]] = value
				}
			}
		}
		if dimensionColumn >= 0 && row.Dimension != data.DimensionARQ {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func metricsFromDatatable(doc *datatableDoc) ([]*data.MetricRow, error) {
	columns := columnNames(doc)
	dateColumn := pickColumn(columns, "date")
	if dateColumn < 0 {
		return nil, fmt.Errorf("datatable has no date column")
	}
	tickerColumn := pickColumn(columns, "ticker")

	rows := make([]*data.MetricRow, 0, len(doc.Datatable.Data))
	for _, cells := range doc.Datatable.Data {
		row := &data.MetricRow{Columns: make(map[string]float64, len(cells))}
		for cellIdx, cell := range cells {
			if cellIdx >= len(columns) {
				break
			}
			switch cellIdx {
			case tickerColumn:
				row.Ticker, _ = cell.(string)
			case dateColumn:
				date, err := cellDate(cell)
				if err != nil {
					return nil, err
				}
				row.EventDate = date
			default:
				if value, ok := cellValue(cell); ok {
					row.Columns[columns[cellIdx]] = value
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func companiesFromDatatable(doc *datatableDoc) ([]*data.CompanyInfo, error) {
	columns := columnNames(doc)
	tickerColumn := pickColumn(columns, "ticker")
	if tickerColumn < 0 {
		return nil, fmt.Errorf("datatable has no ticker column")
	}

	companies := make([]*data.CompanyInfo, 0, len(doc.Datatable.Data))
	for _, cells := range doc.Datatable.Data {
		company := &data.CompanyInfo{Attributes: make(map[string]string, len(cells))}
		for cellIdx, cell := range cells {
			if cellIdx >= len(columns) {
				break
			}
			if cellIdx == tickerColumn {
				company.Ticker, _ = cell.(string)
				continue
			}
			switch value := cell.(type) {
			case string:
				company.Attributes[columns[cellIdx]] = value
			case float64:
				company.Attributes[columns[cellIdx]] = strconv.FormatFloat(value, 'f', -1, 64)
			}
		}
		if company.Ticker != "" {
			companies = append(companies, company)
		}
	}
	return companies, nil
}

func columnNames(doc *datatableDoc) []string {
	names := make([]string, len(doc.Datatable.Columns))
	for colIdx, column := range doc.Datatable.Columns {
		names[colIdx] = column.Name
	}
	return names
}

// pickColumn returns the index of the first candidate present in names, or -1.
func pickColumn(names []string, candidates ...string) int {
	for _, candidate := range candidates {
		for nameIdx, name := range names {
			if name == candidate {
				return nameIdx
			}
		}
	}
	return -1
}

func cellDate(cell interface{}) (time.Time, error) {
	text, ok := cell.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("date cell is not a string: %v", cell)
	}
	date, err := time.Parse(time.DateOnly, text)
	if err != nil {
		return time.Time{}, err
	}
	return data.Midnight(date), nil
}

// cellValue converts a numeric datatable cell. JSON nulls become NaN so that
// missing report values stay null through the calculation.
func cellValue(cell interface{}) (float64, bool) {
	switch value := cell.(type) {
	case float64:
		return value, true
	case nil:
		return math.NaN(), true
	}
	return 0, false
}
