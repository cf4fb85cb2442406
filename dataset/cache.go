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
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/penny-vault/pvtargets/data"
)

// Cache wraps a provider and memoizes loads per ticker, so that a batch with
// several labels per company hits the underlying backend once per company.
// Absence is cached too: a ticker the source has no rows for is remembered as
// an empty slice and not fetched again.
type Cache struct {
	source data.Provider

	fundamentals *haxmap.Map[string, []*data.FundamentalRow]
	metrics      *haxmap.Map[string, []*data.MetricRow]

	companyMutex sync.Mutex
	companies    []*data.CompanyInfo
	companiesSet bool
}

func NewCache(source data.Provider) *Cache {
	return &Cache{
		source:       source,
		fundamentals: haxmap.New[string, []*data.FundamentalRow](),
		metrics:      haxmap.New[string, []*data.MetricRow](),
	}
}

func (cache *Cache) LoadFundamentals(ctx context.Context, tickers []string) ([]*data.FundamentalRow, error) {
	misses := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if _, ok := cache.fundamentals.Get(ticker); !ok {
			misses = append(misses, ticker)
		}
	}

	if len(misses) > 0 {
		loaded, err := cache.source.LoadFundamentals(ctx, misses)
		if err != nil {
			return nil, err
		}
		grouped := make(map[string][]*data.FundamentalRow, len(misses))
		for _, row := range loaded {
			grouped[row.Ticker] = append(grouped[row.Ticker], row)
		}
		for _, ticker := range misses {
			cache.fundamentals.Set(ticker, grouped[ticker])
		}
	}

	rows := make([]*data.FundamentalRow, 0, 64)
	for _, ticker := range tickers {
		cached, _ := cache.fundamentals.Get(ticker)
		rows = append(rows, cached...)
	}
	return rows, nil
}

func (cache *Cache) LoadMetrics(ctx context.Context, tickers []string) ([]*data.MetricRow, error) {
	misses := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if _, ok := cache.metrics.Get(ticker); !ok {
			misses = append(misses, ticker)
		}
	}

	if len(misses) > 0 {
		loaded, err := cache.source.LoadMetrics(ctx, misses)
		if err != nil {
			return nil, err
		}
		grouped := make(map[string][]*data.MetricRow, len(misses))
		for _, row := range loaded {
			grouped[row.Ticker] = append(grouped[row.Ticker], row)
		}
		for _, ticker := range misses {
			cache.metrics.Set(ticker, grouped[ticker])
		}
	}

	rows := make([]*data.MetricRow, 0, 256)
	for _, ticker := range tickers {
		cached, _ := cache.metrics.Get(ticker)
		rows = append(rows, cached...)
	}
	return rows, nil
}

func (cache *Cache) LoadCompanyInfo(ctx context.Context) ([]*data.CompanyInfo, error) {
	cache.companyMutex.Lock()
	defer cache.companyMutex.Unlock()

	if cache.companiesSet {
		return cache.companies, nil
	}

	companies, err := cache.source.LoadCompanyInfo(ctx)
	if err != nil {
		return nil, err
	}

	cache.companies = companies
	cache.companiesSet = true
	return companies, nil
}
