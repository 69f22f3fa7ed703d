/*
Copyright © contributors to layersync

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package check

import (
	"context"
	"fmt"
	"time"

	"github.com/cheynewallace/tabby"
	"github.com/logrusorgru/aurora/v3"

	"github.com/layersync/layersync/internal/configuration"
	"github.com/layersync/layersync/internal/run"
)

// Check renders the most recent published version of every target
func Check(ctx context.Context, config *configuration.Data) error {
	targets, err := run.BuildTargets(config)
	if err != nil {
		return err
	}

	fmt.Println(aurora.Green(fmt.Sprintf("Layer family %s", config.LayerFamily)))

	table := tabby.New()
	table.AddHeader("TARGET", "SEQUENCE", "CREATED", "FINGERPRINT")
	for _, target := range targets {
		listCtx, cancelList := context.WithTimeout(ctx, config.CallTimeout)
		versions, err := target.Artifacts.ListVersions(listCtx)
		cancelList()

		switch {
		case err != nil:
			table.AddLine(target.Name, aurora.Red("error"), "-", err.Error())
		case len(versions) == 0:
			table.AddLine(target.Name, aurora.Yellow("none"), "-", "-")
		default:
			latest := versions[0]
			table.AddLine(
				target.Name,
				latest.Sequence,
				latest.CreatedAt.Format(time.RFC3339),
				shorten(latest.Fingerprint))
		}
	}
	table.Print()

	return nil
}

// shorten truncates a fingerprint for tabular display
func shorten(fingerprint string) string {
	if fingerprint == "" {
		return "-"
	}
	if len(fingerprint) > 16 {
		return fingerprint[:16]
	}
	return fingerprint
}
