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

// Package schedule implements the "schedule" subcommand
package schedule

import (
	"github.com/spf13/cobra"

	"github.com/layersync/layersync/internal/configuration"
)

// NewCmd creates the "schedule" subcommand
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run updates on a cron schedule until interrupted",
		Long: "Runs an update immediately, then sleeps until each next activation " +
			"of the configured cron schedule. An interruption signal exits cleanly " +
			"between runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settingsFile, _ := cmd.Flags().GetString("settings")

			config, err := configuration.Load(settingsFile)
			if err != nil {
				return err
			}
			if err := config.Validate(configuration.ActionSchedule); err != nil {
				return err
			}

			return Schedule(cmd.Context(), config)
		},
	}
}
