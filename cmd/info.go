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

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvtargets/dataset"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display coverage information about the configured dataset backend",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		backend := viper.GetString("dataset.backend")
		dataProvider, err := dataset.New(ctx, backend)
		if err != nil {
			log.Fatal().Err(err).Str("Backend", backend).Msg("could not build dataset backend")
		}

		describer, ok := dataProvider.(dataset.Describer)
		if !ok {
			log.Fatal().Str("Backend", backend).Msg("backend does not report coverage statistics")
		}

		info, err := describer.Describe(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("Backend", backend).Msg("could not describe dataset")
		}

		summary, err := dataset.Summary(info)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create dataset summary document")
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
