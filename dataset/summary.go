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
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of a backend's coverage in markdown
func Summary(info *Info) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s dataset\n", info.Backend)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Coverage\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies: %d\n", info.NumCompanies)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Quarterly Reports: %d\n", info.NumFundamentals)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Daily Observations: %d\n\n", info.NumMetrics)); err != nil {
		return "", err
	}

	if info.FirstReport.Equal(time.Time{}) {
		if _, err := builder.WriteString("Report History: None\n\n"); err != nil {
			return "", err
		}
	} else {
		if _, err := builder.WriteString(fmt.Sprintf("Report History: %s - %s\n\n",
			info.FirstReport.Format("Jan 2006"), info.LastReport.Format("Jan 2006"))); err != nil {
			return "", err
		}
	}

	if info.LastMetric.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Daily Observation: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(info.LastMetric)
		if _, err := builder.WriteString(fmt.Sprintf("Last Daily Observation: %s (%s)\n\n",
			age, info.LastMetric.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
