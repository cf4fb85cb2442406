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
package data

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Report dimensions distinguish as-reported from trailing and annualized
// views of the same filing.
const (
	DimensionARQ = "ARQ"
	DimensionMRQ = "MRQ"
	DimensionART = "ART"
	DimensionARY = "ARY"
)

// Well-known quarterly report columns.
const (
	Revenue                = "revenue"
	NetIncome              = "netinc"
	NetIncomeCommon        = "netinccmn"
	NetCashFlow            = "ncf"
	NetCashFlowFx          = "ncfx"
	FreeCashFlow           = "fcf"
	Assets                 = "assets"
	Ebitda                 = "ebitda"
	Debt                   = "debt"
	GrossProfit            = "gp"
	WorkingCapital         = "workingcapital"
	CashEquivalents        = "cashneq"
	ResearchAndDevelopment = "rnd"
	SellingGeneralAdmin    = "sgna"
	DividendYield          = "divyield"
	CurrentRatio           = "currentratio"
)

// Well-known daily metric columns.
const (
	MarketCap       = "marketcap"
	PriceEarnings   = "pe"
	PriceBook       = "pb"
	PriceSales      = "ps"
	AdjustedClose   = "closeadj"
	UnadjustedClose = "closeunadj"
	Volume          = "volume"
)

// Well-known static company attributes.
const (
	CompanyName    = "name"
	Sector         = "sector"
	SicIndustry    = "sicindustry"
	ScaleMarketCap = "scalemarketcap"
	Currency       = "currency"
	Exchange       = "exchange"
	Location       = "location"
)

// FundamentalRow is a single quarterly report for one ticker. Values are
// keyed by column name; the set of columns varies by data source so rows
// carry a map rather than a fixed struct.
type FundamentalRow struct {
	Ticker    string
	Dimension string
	EventDate time.Time
	Columns   map[string]float64
}

// MetricRow is a single day of market observations for one ticker.
type MetricRow struct {
	Ticker    string
	EventDate time.Time
	Columns   map[string]float64
}

// CompanyInfo holds the static, non-temporal attributes of a ticker.
type CompanyInfo struct {
	Ticker     string
	Attributes map[string]string
}

// Midnight truncates a time to midnight UTC. Report and metric dates are
// calendar dates; comparing values that came from different sources requires
// a single day-precision convention.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RunSummary captures the outcome of computing one target over a request
// table.
type RunSummary struct {
	RunID      uuid.UUID
	TargetName string
	StartTime  time.Time
	EndTime    time.Time
	NumRows    int
	NumNull    int
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.RunID.String()).
		Str("TargetName", summary.TargetName).
		Time("StartTime", summary.StartTime).
		Time("EndTime", summary.EndTime).
		Int("NumRows", summary.NumRows).
		Int("NumNull", summary.NumNull)
}
