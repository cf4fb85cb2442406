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
package export

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvtargets/data"
	"github.com/penny-vault/pvtargets/target"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Nullable is a float64 that round-trips NaN as an empty CSV field.
type Nullable float64

func (value Nullable) MarshalCSV() (string, error) {
	if math.IsNaN(float64(value)) {
		return "", nil
	}
	return strconv.FormatFloat(float64(value), 'f', -1, 64), nil
}

func (value *Nullable) UnmarshalCSV(field string) error {
	if field == "" {
		*value = Nullable(math.NaN())
		return nil
	}
	parsed, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return err
	}
	*value = Nullable(parsed)
	return nil
}

// LabelRow is one computed label ready for serialization.
type LabelRow struct {
	Ticker string   `csv:"ticker"`
	Date   string   `csv:"date"`
	Y      Nullable `csv:"y"`
}

// labelParquetRow mirrors LabelRow with builtin field types for the parquet
// writer. Null labels stay NaN; parquet doubles carry NaN natively.
type labelParquetRow struct {
	Ticker string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date   string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Y      float64 `parquet:"name=y, type=DOUBLE"`
}

// InfoRow is one joined static attribute ready for serialization.
type InfoRow struct {
	Ticker string `csv:"ticker"`
	Y      string `csv:"y"`
}

// RowsFromTable flattens a label table into serializable rows, keeping the
// request order.
func RowsFromTable(table *target.Table) []*LabelRow {
	rows := make([]*LabelRow, 0, table.Len())
	for _, row := range table.Rows() {
		rows = append(rows, &LabelRow{
			Ticker: row.Ticker,
			Date:   row.Date.Format(time.DateOnly),
			Y:      Nullable(row.Y),
		})
	}
	return rows
}

// RowsFromBaseTable flattens a static-attribute table into serializable rows.
func RowsFromBaseTable(table *target.BaseTable) []*InfoRow {
	rows := make([]*InfoRow, 0, table.Len())
	for _, row := range table.Rows() {
		rows = append(rows, &InfoRow{
			Ticker: row.Ticker,
			Y:      row.Y,
		})
	}
	return rows
}

func WriteCSV(rows []*LabelRow, fn string) error {
	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create csv file")
		return err
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(&rows, fh); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("csv write failed")
		return err
	}
	return nil
}

func WriteInfoCSV(rows []*InfoRow, fn string) error {
	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create csv file")
		return err
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(&rows, fh); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("csv write failed")
		return err
	}
	return nil
}

func WriteParquet(rows []*LabelRow, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(labelParquetRow), 4)
	if err != nil {
		log.Error().
			Str("OriginalError", err.Error()).
			Msg("Parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, row := range rows {
		record := &labelParquetRow{
			Ticker: row.Ticker,
			Date:   row.Date,
			Y:      float64(row.Y),
		}
		if err = pw.Write(record); err != nil {
			log.Error().
				Str("OriginalError", err.Error()).
				Str("Date", row.Date).Str("Ticker", row.Ticker).
				Msg("Parquet write failed for record")
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("Parquet write failed")
		return err
	}

	log.Info().Int("NumRecords", len(rows)).Msg("Parquet write finished")
	return nil
}

type requestRow struct {
	Ticker string `csv:"ticker"`
	Date   string `csv:"date"`
}

// ReadRequests loads request rows from a CSV with ticker and date columns.
// Dates must be YYYY-MM-DD.
func ReadRequests(fn string) ([]target.Request, error) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot read request file")
		return nil, err
	}

	var rows []*requestRow
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot parse request file")
		return nil, err
	}

	requests := make([]target.Request, 0, len(rows))
	for rowIdx, row := range rows {
		day, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("request row %d: bad date %q: %w", rowIdx+1, row.Date, err)
		}
		requests = append(requests, target.Request{
			Ticker: row.Ticker,
			Date:   data.Midnight(day),
		})
	}
	return requests, nil
}
