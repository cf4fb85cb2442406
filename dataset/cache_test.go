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
package dataset_test

import (
	"context"
	"errors"

	"github.com/penny-vault/pvtargets/data"
	"github.com/penny-vault/pvtargets/dataset"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// countingSource records which tickers each load reached the backend with.
type countingSource struct {
	fundamentals map[string][]*data.FundamentalRow
	metrics      map[string][]*data.MetricRow
	companies    []*data.CompanyInfo

	fundamentalCalls [][]string
	metricCalls      [][]string
	companyCalls     int

	err error
}

func (source *countingSource) LoadFundamentals(_ context.Context, tickers []string) ([]*data.FundamentalRow, error) {
	source.fundamentalCalls = append(source.fundamentalCalls, tickers)
	if source.err != nil {
		return nil, source.err
	}
	rows := make([]*data.FundamentalRow, 0, 8)
	for _, ticker := range tickers {
		rows = append(rows, source.fundamentals[ticker]...)
	}
	return rows, nil
}

func (source *countingSource) LoadMetrics(_ context.Context, tickers []string) ([]*data.MetricRow, error) {
	source.metricCalls = append(source.metricCalls, tickers)
	if source.err != nil {
		return nil, source.err
	}
	rows := make([]*data.MetricRow, 0, 8)
	for _, ticker := range tickers {
		rows = append(rows, source.metrics[ticker]...)
	}
	return rows, nil
}

func (source *countingSource) LoadCompanyInfo(_ context.Context) ([]*data.CompanyInfo, error) {
	source.companyCalls++
	if source.err != nil {
		return nil, source.err
	}
	return source.companies, nil
}

var _ = Describe("Cache", func() {
	var (
		ctx    context.Context
		source *countingSource
		cache  *dataset.Cache
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = &countingSource{
			fundamentals: map[string][]*data.FundamentalRow{
				"AAPL": {
					{Ticker: "AAPL", Dimension: data.DimensionARQ, EventDate: day("2020-01-15"), Columns: map[string]float64{"revenue": 100}},
				},
				"MSFT": {
					{Ticker: "MSFT", Dimension: data.DimensionARQ, EventDate: day("2020-02-01"), Columns: map[string]float64{"revenue": 200}},
				},
			},
			metrics: map[string][]*data.MetricRow{
				"AAPL": {
					{Ticker: "AAPL", EventDate: day("2020-03-02"), Columns: map[string]float64{"marketcap": 10}},
				},
			},
			companies: []*data.CompanyInfo{
				{Ticker: "AAPL", Attributes: map[string]string{"sector": "Technology"}},
			},
		}
		cache = dataset.NewCache(source)
	})

	It("hits the source once per ticker", func() {
		first, err := cache.LoadFundamentals(ctx, []string{"AAPL"})
		Expect(err).ToNot(HaveOccurred())
		Expect(first).To(HaveLen(1))

		second, err := cache.LoadFundamentals(ctx, []string{"AAPL"})
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(HaveLen(1))
		Expect(second[0].Columns["revenue"]).To(Equal(100.0))

		Expect(source.fundamentalCalls).To(HaveLen(1))
	})

	It("fetches only the missing tickers of a batch", func() {
		_, err := cache.LoadFundamentals(ctx, []string{"AAPL"})
		Expect(err).ToNot(HaveOccurred())

		rows, err := cache.LoadFundamentals(ctx, []string{"AAPL", "MSFT"})
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Ticker).To(Equal("AAPL"))
		Expect(rows[1].Ticker).To(Equal("MSFT"))

		Expect(source.fundamentalCalls).To(HaveLen(2))
		Expect(source.fundamentalCalls[1]).To(Equal([]string{"MSFT"}))
	})

	It("remembers tickers the source has no rows for", func() {
		rows, err := cache.LoadMetrics(ctx, []string{"GOOG"})
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(BeEmpty())

		rows, err = cache.LoadMetrics(ctx, []string{"GOOG"})
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(BeEmpty())

		Expect(source.metricCalls).To(HaveLen(1))
	})

	It("memoizes the company table", func() {
		first, err := cache.LoadCompanyInfo(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(first).To(HaveLen(1))

		second, err := cache.LoadCompanyInfo(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(HaveLen(1))

		Expect(source.companyCalls).To(Equal(1))
	})

	It("does not cache failures", func() {
		loadFailed := errors.New("load failed")
		source.err = loadFailed

		_, err := cache.LoadFundamentals(ctx, []string{"AAPL"})
		Expect(err).To(MatchError(loadFailed))

		source.err = nil
		rows, err := cache.LoadFundamentals(ctx, []string{"AAPL"})
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(1))

		Expect(source.fundamentalCalls).To(HaveLen(2))
	})
})
