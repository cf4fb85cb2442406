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
	"math"
	"os"
	"path/filepath"

	"github.com/penny-vault/pvtargets/data"
	"github.com/penny-vault/pvtargets/dataset"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Files", func() {
	var (
		ctx   context.Context
		dir   string
		files *dataset.Files
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		dir, err = os.MkdirTemp("", "pvtargets-files-test")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		writeFixture(dir, "core_fundamental/AAPL.json", `{
  "datatable": {
    "data": [
      ["AAPL", "ARQ", "2020-04-15", 120.0, null],
      ["AAPL", "MRQ", "2020-04-15", 121.0, 12.0],
      ["AAPL", "ARQ", "2020-01-15", 100.0, 10.0]
    ],
    "columns": [
      {"name": "ticker", "type": "String"},
      {"name": "dimension", "type": "String"},
      {"name": "datekey", "type": "Date"},
      {"name": "revenue", "type": "double"},
      {"name": "netinc", "type": "double"}
    ]
  }
}`)
		writeFixture(dir, "core_fundamental/MSFT.json", `{
  "datatable": {
    "data": [
      ["MSFT", "ARQ", "2019-12-31", 200.0, 20.0]
    ],
    "columns": [
      {"name": "ticker", "type": "String"},
      {"name": "dimension", "type": "String"},
      {"name": "datekey", "type": "Date"},
      {"name": "revenue", "type": "double"},
      {"name": "netinc", "type": "double"}
    ]
  }
}`)
		writeFixture(dir, "daily/AAPL.json", `{
  "datatable": {
    "data": [
      ["AAPL", "2020-03-03", 20.0],
      ["AAPL", "2020-03-02", 10.0]
    ],
    "columns": [
      {"name": "ticker", "type": "String"},
      {"name": "date", "type": "Date"},
      {"name": "marketcap", "type": "double"}
    ]
  }
}`)
		writeFixture(dir, "tickers.json", `{
  "datatable": {
    "data": [
      ["AAPL", "Apple Inc", "Technology", 3571.0],
      ["MSFT", "Microsoft Corp", "Technology", null],
      ["", "Orphan Row", "Technology", 0.0]
    ],
    "columns": [
      {"name": "ticker", "type": "String"},
      {"name": "name", "type": "String"},
      {"name": "sector", "type": "String"},
      {"name": "siccode", "type": "double"}
    ]
  }
}`)

		files, err = dataset.NewFiles(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("NewFiles", func() {
		It("rejects a missing directory", func() {
			_, err := dataset.NewFiles(filepath.Join(dir, "no-such-dir"))
			Expect(err).To(HaveOccurred())
		})

		It("rejects a plain file", func() {
			_, err := dataset.NewFiles(filepath.Join(dir, "tickers.json"))
			Expect(err).To(MatchError(ContainSubstring("not a directory")))
		})
	})

	Describe("LoadFundamentals", func() {
		It("returns as-reported quarterly rows in ascending date order", func() {
			rows, err := files.LoadFundamentals(ctx, []string{"AAPL"})
			Expect(err).ToNot(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			Expect(rows[0].Ticker).To(Equal("AAPL"))
			Expect(rows[0].Dimension).To(Equal(data.DimensionARQ))
			Expect(rows[0].EventDate).To(Equal(day("2020-01-15")))
			Expect(rows[0].Columns["revenue"]).To(Equal(100.0))
			Expect(rows[0].Columns["netinc"]).To(Equal(10.0))

			Expect(rows[1].EventDate).To(Equal(day("2020-04-15")))
			Expect(rows[1].Columns["revenue"]).To(Equal(120.0))
		})

		It("keeps null report values null", func() {
			rows, err := files.LoadFundamentals(ctx, []string{"AAPL"})
			Expect(err).ToNot(HaveOccurred())
			netinc, ok := rows[1].Columns["netinc"]
			Expect(ok).To(BeTrue())
			Expect(math.IsNaN(netinc)).To(BeTrue())
		})

		It("orders rows by ticker before date", func() {
			rows, err := files.LoadFundamentals(ctx, []string{"MSFT", "AAPL"})
			Expect(err).ToNot(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0].Ticker).To(Equal("AAPL"))
			Expect(rows[2].Ticker).To(Equal("MSFT"))
		})

		It("skips tickers without a file", func() {
			rows, err := files.LoadFundamentals(ctx, []string{"AAPL", "GOOG"})
			Expect(err).ToNot(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})

		It("fails on a malformed file", func() {
			writeFixture(dir, "core_fundamental/BAD.json", `{"datatable": [`)
			_, err := files.LoadFundamentals(ctx, []string{"BAD"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("LoadMetrics", func() {
		It("returns daily rows in ascending date order", func() {
			rows, err := files.LoadMetrics(ctx, []string{"AAPL"})
			Expect(err).ToNot(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].EventDate).To(Equal(day("2020-03-02")))
			Expect(rows[0].Columns["marketcap"]).To(Equal(10.0))
			Expect(rows[1].EventDate).To(Equal(day("2020-03-03")))
		})

		It("treats absent daily history as empty", func() {
			rows, err := files.LoadMetrics(ctx, []string{"MSFT"})
			Expect(err).ToNot(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("LoadCompanyInfo", func() {
		It("joins attributes by column name", func() {
			companies, err := files.LoadCompanyInfo(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(companies).To(HaveLen(2))
			Expect(companies[0].Ticker).To(Equal("AAPL"))
			Expect(companies[0].Attributes["sector"]).To(Equal("Technology"))
		})

		It("formats numeric attributes as strings", func() {
			companies, err := files.LoadCompanyInfo(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(companies[0].Attributes["siccode"]).To(Equal("3571"))
		})

		It("skips null attribute cells", func() {
			companies, err := files.LoadCompanyInfo(ctx)
			Expect(err).ToNot(HaveOccurred())
			_, ok := companies[1].Attributes["siccode"]
			Expect(ok).To(BeFalse())
		})

		It("fails when the ticker table is missing", func() {
			Expect(os.Remove(filepath.Join(dir, "tickers.json"))).To(Succeed())
			_, err := files.LoadCompanyInfo(ctx)
			Expect(err).To(MatchError(ContainSubstring("tickers.json")))
		})
	})

	Describe("Describe", func() {
		It("counts dataset coverage", func() {
			info, err := files.Describe(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(info.Backend).To(Equal(dataset.FilesBackend))
			Expect(info.NumCompanies).To(Equal(2))
			Expect(info.NumFundamentals).To(Equal(2))
			Expect(info.NumMetrics).To(Equal(1))
		})
	})
})
