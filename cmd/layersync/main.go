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

// The layersync command keeps a versioned layer synchronized across
// every configured target
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/layersync/layersync/internal/cmd/check"
	"github.com/layersync/layersync/internal/cmd/cleanup"
	"github.com/layersync/layersync/internal/cmd/schedule"
	"github.com/layersync/layersync/internal/cmd/update"
	"github.com/layersync/layersync/pkg/log"
)

func main() {
	logFlags := &log.Flags{}

	rootCmd := &cobra.Command{
		Use:           "layersync",
		Short:         "Keep a versioned layer synchronized across every target",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logFlags.ConfigureLogging()
		},
	}

	logFlags.AddFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().String(
		"settings", "", "Optional settings file overriding the environment")

	rootCmd.AddCommand(update.NewCmd())
	rootCmd.AddCommand(check.NewCmd())
	rootCmd.AddCommand(schedule.NewCmd())
	rootCmd.AddCommand(cleanup.NewCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err, "Command failed")
		os.Exit(1)
	}
}
