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

// Package cleanup implements the "cleanup" subcommand
package cleanup

import (
	"github.com/spf13/cobra"

	"github.com/layersync/layersync/internal/configuration"
	"github.com/layersync/layersync/internal/run"
	"github.com/layersync/layersync/pkg/log"
)

// NewCmd creates the "cleanup" subcommand
func NewCmd() *cobra.Command {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove aged temporary files and reap unreferenced versions",
		Long: "Removes the downloads and extractions left behind by previous runs " +
			"and reclaims the unreferenced layer versions beyond the retention " +
			"horizon on every target.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settingsFile, _ := cmd.Flags().GetString("settings")
			afterUpdate, _ := cmd.Flags().GetBool("after-update")

			config, err := configuration.Load(settingsFile)
			if err != nil {
				return err
			}
			if err := config.Validate(configuration.ActionCleanup); err != nil {
				return err
			}

			maxAge := config.StaleTempMaxAge
			if afterUpdate {
				maxAge = config.FreshTempMaxAge
			}
			if removed := run.CleanupTemp(config, maxAge); removed > 0 {
				log.Info("Removed aged temporary files",
					"count", removed,
					"maxAge", maxAge.String())
			}

			return run.Reap(cmd.Context(), config)
		},
	}

	cleanupCmd.Flags().Bool(
		"after-update", false,
		"Use the shorter age threshold suited to running right after an update")

	return cleanupCmd
}
