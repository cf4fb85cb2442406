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
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvtargets/data"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	nasdaqFundamentalsURL = "https://data.nasdaq.com/api/v3/datatables/SHARADAR/SF1.json"
	nasdaqMetricsURL      = "https://data.nasdaq.com/api/v3/datatables/SHARADAR/DAILY.json"
	nasdaqTickersURL      = "https://data.nasdaq.com/api/v3/datatables/SHARADAR/TICKERS.json"
)

// Nasdaq loads series directly from the Nasdaq Data Link datatables API.
// Requests are paged with qopts.cursor_id and throttled against the
// subscription rate limit, which Nasdaq enforces per minute.
type Nasdaq struct {
	APIKey    string
	Dimension string

	client  *resty.Client
	limiter *rate.Limiter
}

func NewNasdaq(apiKey string, rateLimit int) *Nasdaq {
	if rateLimit <= 0 {
		rateLimit = 30
	}
	client := resty.New().
		SetQueryParam("api_key", apiKey).
		SetRetryCount(3).
		SetRetryWaitTime(5 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})
	return &Nasdaq{
		APIKey:    apiKey,
		Dimension: data.DimensionARQ,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

func (nasdaq *Nasdaq) LoadFundamentals(ctx context.Context, tickers []string) ([]*data.FundamentalRow, error) {
	rows := make([]*data.FundamentalRow, 0, 64)
	params := map[string]string{
		"ticker":    strings.Join(tickers, ","),
		"dimension": nasdaq.Dimension,
	}

	err := nasdaq.eachPage(ctx, nasdaqFundamentalsURL, params, func(names []string, val gjson.Result) {
		row := &data.FundamentalRow{
			Columns: make(map[string]float64, len(names)),
		}
		for idx, name := range names {
			cell := val.Get(strconv.Itoa(idx))
			switch name {
			case "ticker":
				row.Ticker = cell.String()
			case "dimension":
				row.Dimension = cell.String()
			case "datekey":
				row.EventDate = parseDay(cell.String())
			case "calendardate", "reportperiod", "lastupdated":
				// bookkeeping columns, not report values
			default:
				row.Columns[name] = cellFloat(cell)
			}
		}
		if row.EventDate.IsZero() {
			log.Warn().Str("Ticker", row.Ticker).Msg("dropping fundamental row with unparseable datekey")
			return
		}
		rows = append(rows, row)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].EventDate.Before(rows[j].EventDate)
	})
	return rows, nil
}

func (nasdaq *Nasdaq) LoadMetrics(ctx context.Context, tickers []string) ([]*data.MetricRow, error) {
	rows := make([]*data.MetricRow, 0, 256)
	params := map[string]string{
		"ticker": strings.Join(tickers, ","),
	}

	err := nasdaq.eachPage(ctx, nasdaqMetricsURL, params, func(names []string, val gjson.Result) {
		row := &data.MetricRow{
			Columns: make(map[string]float64, len(names)),
		}
		for idx, name := range names {
			cell := val.Get(strconv.Itoa(idx))
			switch name {
			case "ticker":
				row.Ticker = cell.String()
			case "date":
				row.EventDate = parseDay(cell.String())
			case "lastupdated":
			default:
				row.Columns[name] = cellFloat(cell)
			}
		}
		if row.EventDate.IsZero() {
			log.Warn().Str("Ticker", row.Ticker).Msg("dropping metric row with unparseable date")
			return
		}
		rows = append(rows, row)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].EventDate.Before(rows[j].EventDate)
	})
	return rows, nil
}

func (nasdaq *Nasdaq) LoadCompanyInfo(ctx context.Context) ([]*data.CompanyInfo, error) {
	companies := make([]*data.CompanyInfo, 0, 256)
	params := map[string]string{
		"table": "SF1",
	}

	err := nasdaq.eachPage(ctx, nasdaqTickersURL, params, func(names []string, val gjson.Result) {
		company := &data.CompanyInfo{
			Attributes: make(map[string]string, len(names)),
		}
		for idx, name := range names {
			cell := val.Get(strconv.Itoa(idx))
			switch name {
			case "ticker":
				company.Ticker = cell.String()
			case "table", "lastupdated":
			default:
				if cell.Type == gjson.Null {
					continue
				}
				company.Attributes[name] = cell.String()
			}
		}
		companies = append(companies, company)
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// eachPage walks every page of a datatable response, invoking each once per
// data row with the column names of the table.
func (nasdaq *Nasdaq) eachPage(ctx context.Context, url string, params map[string]string, each func(names []string, val gjson.Result)) error {
	cursor := ""
	for {
		if err := nasdaq.limiter.Wait(ctx); err != nil {
			return err
		}

		req := nasdaq.client.R().SetContext(ctx).SetQueryParams(params)
		if cursor != "" {
			req.SetQueryParam("qopts.cursor_id", cursor)
		}

		resp, err := req.Get(url)
		if err != nil {
			log.Error().Err(err).Str("Url", url).Msg("failed to download datatable page")
			return err
		}

		if resp.StatusCode() >= 400 {
			log.Error().Int("StatusCode", resp.StatusCode()).Str("Url", url).Bytes("Body", resp.Body()).Msg("error when requesting url")
			return fmt.Errorf("%w: status %d from %s", ErrRequestFailed, resp.StatusCode(), url)
		}

		responseBody := string(resp.Body())
		names := datatableColumns(responseBody)
		for _, val := range gjson.Get(responseBody, "datatable.data").Array() {
			each(names, val)
		}

		cursor = gjson.Get(responseBody, "meta.next_cursor_id").String()
		if cursor == "" {
			return nil
		}
	}
}

func datatableColumns(responseBody string) []string {
	columns := gjson.Get(responseBody, "datatable.columns").Array()
	names := make([]string, len(columns))
	for idx, column := range columns {
		names[idx] = column.Get("name").String()
	}
	return names
}

func parseDay(value string) time.Time {
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}
	}
	return data.Midnight(day)
}

func cellFloat(cell gjson.Result) float64 {
	if !cell.Exists() || cell.Type == gjson.Null {
		return math.NaN()
	}
	return cell.Float()
}
