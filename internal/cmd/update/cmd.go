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

// Package update implements the "update" subcommand
package update

import (
	"github.com/spf13/cobra"

	"github.com/layersync/layersync/internal/configuration"
	"github.com/layersync/layersync/internal/run"
)

// NewCmd creates the "update" subcommand
func NewCmd() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Synchronize every target with the latest artifact",
		Long: "Fetches the latest artifact, publishes it as a new layer version on " +
			"every configured target, migrates the consumers still bound to older " +
			"versions and reclaims the unreferenced ones.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settingsFile, _ := cmd.Flags().GetString("settings")
			force, _ := cmd.Flags().GetBool("force")

			config, err := configuration.Load(settingsFile)
			if err != nil {
				return err
			}
			if err := config.Validate(configuration.ActionUpdate); err != nil {
				return err
			}

			return run.Update(cmd.Context(), config, force)
		},
	}

	updateCmd.Flags().Bool(
		"force", false, "Publish even when change detection finds the published content current")

	return updateCmd
}
