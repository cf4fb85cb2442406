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
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvtargets/db"
	"github.com/penny-vault/pvtargets/dataset"
	"github.com/penny-vault/pvtargets/healthcheck"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type pvtargetsConfig struct {
	Dataset struct {
		Backend string `toml:"backend"`
		Dir     string `toml:"dir"`
	} `toml:"dataset"`
	DB struct {
		URL string `toml:"url"`
	} `toml:"db"`
	Nasdaq struct {
		APIKey    string `toml:"api_key"`
		RateLimit int    `toml:"rate_limit"`
	} `toml:"nasdaq"`
	Healthcheck struct {
		ID string `toml:"id"`
	} `toml:"healthcheck"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather backend configuration and setup database schema",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			monitored bool
			confirmed bool
		)

		cfg := &pvtargetsConfig{}
		cfg.Nasdaq.RateLimit = 30

		minuteChoice := rand.Intn(12) * 5
		hourChoice := rand.Intn(9)
		schedule := fmt.Sprintf("%d %d * * 1-5", minuteChoice, hourChoice)

		backends := make([]string, 0, len(dataset.Map))
		for backend := range dataset.Map {
			backends = append(backends, backend)
		}
		sort.Strings(backends)

		backendOptions := make([]huh.Option[string], 0, len(backends))
		for _, backend := range backends {
			backendOptions = append(backendOptions, huh.NewOption[string](backend, backend))
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which dataset backend should labels be computed from?").
					Options(backendOptions...).
					Value(&cfg.Dataset.Backend),
				huh.NewConfirm().
					Title("Should a healthcheck.io monitor be created for scheduled label runs?").
					Value(&monitored),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering backend settings")
		}

		// walk user through settings required by the chosen backend
		switch cfg.Dataset.Backend {
		case dataset.FilesBackend:
			backendForm := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Which directory holds the downloaded datatable JSON files?").
						Value(&cfg.Dataset.Dir),
				),
			)
			if err := backendForm.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering files backend settings")
			}
		case dataset.DatabaseBackend:
			backendForm := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
						Value(&cfg.DB.URL).
						Validate(func(dsn string) error {
							_, err := pgx.ParseConfig(dsn)
							return err
						}),
				),
			)
			if err := backendForm.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering database settings")
			}
		case dataset.NasdaqBackend:
			rateLimit := strconv.Itoa(cfg.Nasdaq.RateLimit)
			backendForm := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("What is your Nasdaq Data Link API key?").
						Value(&cfg.Nasdaq.APIKey),
					huh.NewInput().
						Title("How many API requests does your subscription allow per minute?").
						Value(&rateLimit).
						Validate(func(limit string) error {
							_, err := strconv.Atoi(limit)
							return err
						}),
				),
			)
			if err := backendForm.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering nasdaq settings")
			}
			cfg.Nasdaq.RateLimit, _ = strconv.Atoi(rateLimit)
		}

		if monitored {
			scheduleForm := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("What schedule will label runs execute on?").
						Value(&schedule),
				),
			)
			if err := scheduleForm.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering schedule")
			}
		}

		// Print configuration summary
		{
			var sb strings.Builder
			keyword := func(s string) string {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
			}

			isMonitored := "no"
			if monitored {
				isMonitored = "yes"
			}

			fmt.Fprintf(&sb,
				"%s\n\nBackend: %s\nMonitored: %s\n",
				lipgloss.NewStyle().Bold(true).Render("NEW CONFIGURATION"),
				keyword(cfg.Dataset.Backend),
				keyword(isMonitored),
			)

			switch cfg.Dataset.Backend {
			case dataset.FilesBackend:
				fmt.Fprintf(&sb, "Directory: %s\n", keyword(cfg.Dataset.Dir))
			case dataset.DatabaseBackend:
				fmt.Fprintf(&sb, "Database: %s\n", keyword(cfg.DB.URL))
			case dataset.NasdaqBackend:
				fmt.Fprintf(&sb, "Rate Limit: %s\n", keyword(strconv.Itoa(cfg.Nasdaq.RateLimit)))
			}

			fmt.Println(
				lipgloss.NewStyle().
					Width(60).
					BorderStyle(lipgloss.RoundedBorder()).
					BorderForeground(lipgloss.Color("63")).
					Padding(1, 2).
					Render(sb.String()),
			)
		}

		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Save configuration?").
					Value(&confirmed),
			),
		)

		if err := confirmForm.Run(); err != nil {
			log.Fatal().Err(err).Msg("failed to create wizard")
		}

		if !confirmed {
			log.Info().Msg("Not saving configuration")
			return
		}

		if cfg.Dataset.Backend == dataset.DatabaseBackend {
			log.Info().Msg("creating database tables")

			// run migration
			dbURL := strings.Replace(cfg.DB.URL, "postgres://", "pgx5://", -1)
			if err := db.Migrate(dbURL); err != nil {
				log.Fatal().Err(err).Msg("error running database migration")
			}

			log.Info().Msg("database tables created")
		}

		if monitored {
			checkSlug := slug.Make("pvtargets labels")
			checkID, err := healthcheck.Create("pvtargets labels", checkSlug, []string{"labels", cfg.Dataset.Backend}, schedule)
			if err != nil {
				log.Fatal().Err(err).Msg("creating healthcheck failed")
			}
			cfg.Healthcheck.ID = checkID
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvtargets.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving backend settings to config file")
		configData, err := toml.Marshal(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvtargets has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
