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
package data

import "context"

// Provider supplies the series a target calculation reads. Backends must
// return rows in ascending date order within each ticker; target math relies
// on that ordering.
type Provider interface {
	// LoadFundamentals returns the quarterly report rows for the requested
	// tickers.
	LoadFundamentals(ctx context.Context, tickers []string) ([]*FundamentalRow, error)

	// LoadMetrics returns the daily metric rows for the requested tickers. A
	// ticker with no daily history contributes no rows and no error.
	LoadMetrics(ctx context.Context, tickers []string) ([]*MetricRow, error)

	// LoadCompanyInfo returns one row per known ticker with its static
	// attributes.
	LoadCompanyInfo(ctx context.Context) ([]*CompanyInfo, error)
}
