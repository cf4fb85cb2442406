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
	"math"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvtargets/data"
)

// Database loads series from a PostgreSQL database. Report values are stored
// one value per row in the long format created by `pvtargets init`, which
// keeps the column set open-ended without schema changes.
type Database struct {
	DBUrl     string
	Dimension string

	Pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	return &Database{
		DBUrl:     dbURL,
		Dimension: data.DimensionARQ,
		Pool:      pool,
	}, nil
}

// Close the database pool
func (database *Database) Close() {
	database.Pool.Close()
}

type fundamentalValue struct {
	Ticker    string    `db:"ticker"`
	Dimension string    `db:"dimension"`
	EventDate time.Time `db:"event_date"`
	Name      string    `db:"name"`
	Value     *float64  `db:"value"`
}

type metricValue struct {
	Ticker    string    `db:"ticker"`
	EventDate time.Time `db:"event_date"`
	Name      string    `db:"name"`
	Value     *float64  `db:"value"`
}

type companyValue struct {
	Ticker string `db:"ticker"`
	Name   string `db:"name"`
	Value  string `db:"value"`
}

func (database *Database) LoadFundamentals(ctx context.Context, tickers []string) ([]*data.FundamentalRow, error) {
	var values []*fundamentalValue
	err := pgxscan.Select(ctx, database.Pool, &values,
		`SELECT ticker, dimension, event_date, name, value FROM fundamentals
WHERE ticker = ANY($1) AND dimension = $2
ORDER BY ticker, event_date, name`, tickers, database.Dimension)
	if err != nil {
		return nil, err
	}

	rows := make([]*data.FundamentalRow, 0, 64)
	var current *data.FundamentalRow
	for _, value := range values {
		eventDate := data.Midnight(value.EventDate)
		if current == nil || current.Ticker != value.Ticker || !current.EventDate.Equal(eventDate) {
			current = &data.FundamentalRow{
				Ticker:    value.Ticker,
				Dimension: value.Dimension,
				EventDate: eventDate,
				Columns:   make(map[string]float64, 16),
			}
			rows = append(rows, current)
		}
		current.Columns[value.Name] = nullableFloat(value.Value)
	}
	return rows, nil
}

func (database *Database) LoadMetrics(ctx context.Context, tickers []string) ([]*data.MetricRow, error) {
	var values []*metricValue
	err := pgxscan.Select(ctx, database.Pool, &values,
		`SELECT ticker, event_date, name, value FROM metrics
WHERE ticker = ANY($1)
ORDER BY ticker, event_date, name`, tickers)
	if err != nil {
		return nil, err
	}

	rows := make([]*data.MetricRow, 0, 256)
	var current *data.MetricRow
	for _, value := range values {
		eventDate := data.Midnight(value.EventDate)
		if current == nil || current.Ticker != value.Ticker || !current.EventDate.Equal(eventDate) {
			current = &data.MetricRow{
				Ticker:    value.Ticker,
				EventDate: eventDate,
				Columns:   make(map[string]float64, 8),
			}
			rows = append(rows, current)
		}
		current.Columns[value.Name] = nullableFloat(value.Value)
	}
	return rows, nil
}

func (database *Database) LoadCompanyInfo(ctx context.Context) ([]*data.CompanyInfo, error) {
	var values []*companyValue
	err := pgxscan.Select(ctx, database.Pool, &values,
		`SELECT ticker, name, value FROM companies ORDER BY ticker, name`)
	if err != nil {
		return nil, err
	}

	companies := make([]*data.CompanyInfo, 0, 64)
	var current *data.CompanyInfo
	for _, value := range values {
		if current == nil || current.Ticker != value.Ticker {
			current = &data.CompanyInfo{
				Ticker:     value.Ticker,
				Attributes: make(map[string]string, 8),
			}
			companies = append(companies, current)
		}
		current.Attributes[value.Name] = value.Value
	}
	return companies, nil
}

// Describe reports coverage statistics with aggregate queries.
func (database *Database) Describe(ctx context.Context) (*Info, error) {
	conn, err := database.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	info := &Info{Backend: DatabaseBackend}
	if err := conn.QueryRow(ctx, `SELECT count(DISTINCT ticker) FROM companies`).Scan(&info.NumCompanies); err != nil {
		return nil, err
	}
	if err := conn.QueryRow(ctx,
		`SELECT count(*) FROM (SELECT DISTINCT ticker, dimension, event_date FROM fundamentals) reports`).Scan(&info.NumFundamentals); err != nil {
		return nil, err
	}
	if err := conn.QueryRow(ctx,
		`SELECT count(*) FROM (SELECT DISTINCT ticker, event_date FROM metrics) observations`).Scan(&info.NumMetrics); err != nil {
		return nil, err
	}
	if err := conn.QueryRow(ctx,
		`SELECT coalesce(min(event_date), '0001-01-01'::date), coalesce(max(event_date), '0001-01-01'::date) FROM fundamentals`).Scan(&info.FirstReport, &info.LastReport); err != nil {
		return nil, err
	}
	if err := conn.QueryRow(ctx,
		`SELECT coalesce(max(event_date), '0001-01-01'::date) FROM metrics`).Scan(&info.LastMetric); err != nil {
		return nil, err
	}
	return info, nil
}

func nullableFloat(value *float64) float64 {
	if value == nil {
		return math.NaN()
	}
	return *value
}
