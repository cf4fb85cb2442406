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
package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvtargets/backblaze"
	"github.com/penny-vault/pvtargets/data"
	"github.com/penny-vault/pvtargets/dataset"
	"github.com/penny-vault/pvtargets/export"
	"github.com/penny-vault/pvtargets/healthcheck"
	"github.com/penny-vault/pvtargets/target"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	computeTargetsFN  string
	computeRequestsFN string
	computeOut        string
	computeFormat     string
	computeWorkers    int
	computeUpload     bool
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute label files for every target in a TOML target list",
	Long: `The compute sub-command reads request rows (ticker and as-of date) from a
CSV file, computes every target named in the target list against the
configured dataset backend, and writes one label file per target to the
output directory. Rows keep the order of the request file; labels that could
not be resolved are written as nulls.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runID := uuid.New()
		runStart := time.Now()
		hcID := viper.GetString("healthcheck.id")

		fail := func(msg string, err error) {
			if hcID != "" {
				if pingErr := healthcheck.PingFailure(hcID, runID, err.Error()); pingErr != nil {
					log.Warn().Err(pingErr).Msg("could not send failure ping")
				}
			}
			log.Fatal().Err(err).Msg(msg)
		}

		if computeFormat != "csv" && computeFormat != "parquet" {
			log.Fatal().Str("Format", computeFormat).Msg("format must be csv or parquet")
		}

		if hcID != "" {
			if err := healthcheck.PingStart(hcID, runID); err != nil {
				log.Warn().Err(err).Msg("could not send start ping")
			}
		}

		requests, err := export.ReadRequests(computeRequestsFN)
		if err != nil {
			fail("could not read request rows", err)
		}

		rawSpecs, err := os.ReadFile(computeTargetsFN)
		if err != nil {
			fail("could not read target list", err)
		}

		specs, err := target.LoadSpecs(rawSpecs)
		if err != nil {
			fail("could not parse target list", err)
		}

		backend := viper.GetString("dataset.backend")
		source, err := dataset.New(ctx, backend)
		if err != nil {
			fail("could not build dataset backend", err)
		}
		dataProvider := dataset.NewCache(source)

		if err := os.MkdirAll(computeOut, 0755); err != nil {
			fail("could not create output directory", err)
		}

		log.Info().Str("RunID", runID.String()).Str("Backend", backend).
			Int("NumRequests", len(requests)).Int("NumTargets", len(specs)).
			Msg("computing targets")

		written := make([]string, 0, len(specs))
		for _, spec := range specs {
			startTime := time.Now()
			summary := &data.RunSummary{
				RunID:      runID,
				TargetName: spec.Name,
				StartTime:  startTime,
			}

			var outName string
			if spec.Kind == target.KindBaseInfo {
				baseInfo := &target.BaseInfoTarget{Column: spec.Column}
				table, err := baseInfo.Calculate(ctx, dataProvider, requests)
				if err != nil {
					fail(fmt.Sprintf("computing %s failed", spec.Name), err)
				}

				summary.NumRows = table.Len()
				for _, row := range table.Rows() {
					if row.Y == "" {
						summary.NumNull++
					}
				}

				// static attributes are strings; they always export as csv
				outName = filepath.Join(computeOut, slug.Make(spec.Name)+".csv")
				if err := export.WriteInfoCSV(export.RowsFromBaseTable(table), outName); err != nil {
					fail(fmt.Sprintf("writing %s failed", spec.Name), err)
				}
			} else {
				calculator, err := target.FromSpec(spec)
				if err != nil {
					fail(fmt.Sprintf("building %s failed", spec.Name), err)
				}

				table, err := calculator.Calculate(ctx, dataProvider, requests, computeWorkers)
				if err != nil {
					fail(fmt.Sprintf("computing %s failed", spec.Name), err)
				}

				summary.NumRows = table.Len()
				for _, y := range table.Values() {
					if math.IsNaN(y) {
						summary.NumNull++
					}
				}

				rows := export.RowsFromTable(table)
				outName = filepath.Join(computeOut, slug.Make(spec.Name)+"."+computeFormat)
				switch computeFormat {
				case "csv":
					err = export.WriteCSV(rows, outName)
				case "parquet":
					err = export.WriteParquet(rows, outName)
				}
				if err != nil {
					fail(fmt.Sprintf("writing %s failed", spec.Name), err)
				}
			}

			summary.EndTime = time.Now()
			written = append(written, outName)
			log.Info().Object("RunSummary", summary).
				Str("RunTime", durafmt.Parse(summary.EndTime.Sub(startTime)).String()).
				Str("FileName", outName).
				Msg("computed target")
		}

		if computeUpload {
			bucketName := viper.GetString("backblaze.bucket")
			if err := backblaze.UploadRun(written, bucketName, runStart); err != nil {
				fail("uploading label files failed", err)
			}
		}

		if hcID != "" {
			if err := healthcheck.Ping(hcID, runID); err != nil {
				log.Warn().Err(err).Msg("could not send success ping")
			}
		}

		log.Info().Str("RunTime", durafmt.Parse(time.Since(runStart)).String()).
			Int("NumTargets", len(specs)).
			Msg("computed all targets")
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVarP(&computeTargetsFN, "targets", "t", "targets.toml", "TOML file naming the targets to compute")
	computeCmd.Flags().StringVarP(&computeRequestsFN, "requests", "r", "requests.csv", "CSV file of request rows (ticker, date)")
	computeCmd.Flags().StringVarP(&computeOut, "out", "o", ".", "directory label files are written to")
	computeCmd.Flags().StringVarP(&computeFormat, "format", "f", "csv", "label file format (csv or parquet)")
	computeCmd.Flags().IntVarP(&computeWorkers, "workers", "w", 0, "number of concurrent per-company workers (0 = number of CPUs)")
	computeCmd.Flags().BoolVar(&computeUpload, "upload", false, "upload label files to backblaze after the run")
}
