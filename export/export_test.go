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
package export_test

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/pvtargets/data"
	"github.com/penny-vault/pvtargets/export"
	"github.com/penny-vault/pvtargets/target"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func day(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return data.Midnight(t)
}

var _ = Describe("Nullable", func() {
	It("writes values as plain decimals", func() {
		field, err := export.Nullable(120).MarshalCSV()
		Expect(err).ToNot(HaveOccurred())
		Expect(field).To(Equal("120"))

		field, err = export.Nullable(0.5).MarshalCSV()
		Expect(err).ToNot(HaveOccurred())
		Expect(field).To(Equal("0.5"))
	})

	It("writes null as an empty field", func() {
		field, err := export.Nullable(math.NaN()).MarshalCSV()
		Expect(err).ToNot(HaveOccurred())
		Expect(field).To(Equal(""))
	})

	It("reads an empty field as null", func() {
		var value export.Nullable
		Expect(value.UnmarshalCSV("")).To(Succeed())
		Expect(math.IsNaN(float64(value))).To(BeTrue())
	})

	It("reads decimals", func() {
		var value export.Nullable
		Expect(value.UnmarshalCSV("1.25")).To(Succeed())
		Expect(float64(value)).To(Equal(1.25))
	})

	It("rejects garbage", func() {
		var value export.Nullable
		Expect(value.UnmarshalCSV("twelve")).To(HaveOccurred())
	})
})

var _ = Describe("RowsFromTable", func() {
	It("keeps request order and formats dates", func() {
		table := target.NewTable([]target.Row{
			{Ticker: "AAPL", Date: day("2020-03-02"), Y: 120},
			{Ticker: "MSFT", Date: day("2020-03-03"), Y: math.NaN()},
		})

		rows := export.RowsFromTable(table)
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Ticker).To(Equal("AAPL"))
		Expect(rows[0].Date).To(Equal("2020-03-02"))
		Expect(float64(rows[0].Y)).To(Equal(120.0))
		Expect(math.IsNaN(float64(rows[1].Y))).To(BeTrue())
	})
})

var _ = Describe("RowsFromBaseTable", func() {
	It("flattens joined attributes", func() {
		table := target.NewBaseTable([]target.BaseRow{
			{Ticker: "AAPL", Y: "Technology"},
			{Ticker: "GOOG", Y: ""},
		})

		rows := export.RowsFromBaseTable(table)
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Y).To(Equal("Technology"))
		Expect(rows[1].Y).To(Equal(""))
	})
})

var _ = Describe("CSV files", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "pvtargets-export-test")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	It("writes labels with empty fields for nulls", func() {
		fn := filepath.Join(dir, "labels.csv")
		rows := []*export.LabelRow{
			{Ticker: "AAPL", Date: "2020-03-02", Y: 120},
			{Ticker: "MSFT", Date: "2020-03-03", Y: export.Nullable(math.NaN())},
		}
		Expect(export.WriteCSV(rows, fn)).To(Succeed())

		content, err := os.ReadFile(fn)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("ticker,date,y\nAAPL,2020-03-02,120\nMSFT,2020-03-03,\n"))
	})

	It("writes static attributes", func() {
		fn := filepath.Join(dir, "info.csv")
		rows := []*export.InfoRow{{Ticker: "AAPL", Y: "Technology"}}
		Expect(export.WriteInfoCSV(rows, fn)).To(Succeed())

		content, err := os.ReadFile(fn)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("ticker,y\nAAPL,Technology\n"))
	})

	Describe("ReadRequests", func() {
		It("parses ticker and date columns", func() {
			fn := filepath.Join(dir, "requests.csv")
			Expect(os.WriteFile(fn, []byte("ticker,date\nAAPL,2020-03-02\nMSFT,2020-04-01\n"), 0644)).To(Succeed())

			requests, err := export.ReadRequests(fn)
			Expect(err).ToNot(HaveOccurred())
			Expect(requests).To(Equal([]target.Request{
				{Ticker: "AAPL", Date: day("2020-03-02")},
				{Ticker: "MSFT", Date: day("2020-04-01")},
			}))
		})

		It("reports the row of a bad date", func() {
			fn := filepath.Join(dir, "requests.csv")
			Expect(os.WriteFile(fn, []byte("ticker,date\nAAPL,2020-03-02\nMSFT,03/15/2020\n"), 0644)).To(Succeed())

			_, err := export.ReadRequests(fn)
			Expect(err).To(MatchError(ContainSubstring("request row 2")))
		})

		It("fails on a missing file", func() {
			_, err := export.ReadRequests(filepath.Join(dir, "no-such-file.csv"))
			Expect(err).To(HaveOccurred())
		})
	})
})
