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
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvtargets/dataset"
	"github.com/penny-vault/pvtargets/target"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var kindExamples = map[string]string{
	target.KindQuarterly: `[[target]]
name = "marketcap_q"
kind = "quarterly"
column = "marketcap"
shift = 0`,
	target.KindQuarterlyDiff: `[[target]]
name = "revenue_qdiff"
kind = "quarterly-diff"
column = "revenue"
norm = true`,
	target.KindQuarterlyBinDiff: `[[target]]
name = "netinc_up"
kind = "quarterly-bin-diff"
column = "netinc"`,
	target.KindDailyAgg: `[[target]]
name = "marketcap_next90_mean"
kind = "daily-agg"
column = "marketcap"
horizon = 90
agg = "mean"`,
	target.KindSmoothedDiff: `[[target]]
name = "marketcap_sdiff"
kind = "daily-smoothed-quarterly-diff"
column = "marketcap"
horizon = 30
norm = true`,
	target.KindReportGap: `[[target]]
name = "marketcap_gap"
kind = "report-gap"
column = "marketcap"
horizon = 1
norm = true`,
	target.KindBaseInfo: `[[target]]
name = "sector"
kind = "base-info"
column = "sector"`,
}

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:   "targets <kind>",
	Short: "List all target kinds available or get details about a specific kind",
	Run: func(cmd *cobra.Command, args []string) {

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		builder := strings.Builder{}

		if len(args) > 0 {
			if description, ok := target.KindDescriptions[args[0]]; ok {
				builder.WriteString(fmt.Sprintf("# %s\n", args[0]))
				builder.WriteString(description)
				if example, ok := kindExamples[args[0]]; ok {
					builder.WriteString("\n\n## Example\n")
					builder.WriteString(fmt.Sprintf("```toml\n%s\n```\n", example))
				}
			}
		} else {
			builder.WriteString("# Available Target Kinds\n")
			for _, kind := range sortedKinds() {
				builder.WriteString(fmt.Sprintf("\n## %s\n", kind))
				builder.WriteString(target.KindDescriptions[kind])
			}

			builder.WriteString("\n\n# Aggregations\n\n")
			builder.WriteString("Window aggregations accepted by the daily-agg kind: ")
			builder.WriteString(strings.Join(target.AggNames(), ", "))
			builder.WriteString("\n\n# Dataset Backends\n")
			for _, backend := range sortedBackends() {
				builder.WriteString(fmt.Sprintf("\n## %s\n", backend))
				builder.WriteString(dataset.Map[backend])
			}
		}

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render target kind document")
		}

		fmt.Print(out)
	},
}

func sortedKinds() []string {
	kinds := make([]string, 0, len(target.KindDescriptions))
	for kind := range target.KindDescriptions {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func sortedBackends() []string {
	backends := make([]string, 0, len(dataset.Map))
	for backend := range dataset.Map {
		backends = append(backends, backend)
	}
	sort.Strings(backends)
	return backends
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
