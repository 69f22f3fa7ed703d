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

package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"

	"github.com/layersync/layersync/internal/configuration"
	"github.com/layersync/layersync/internal/run"
	"github.com/layersync/layersync/pkg/log"
)

// Schedule runs an update immediately and then on every activation of
// the configured cron expression, until the context is cancelled. A
// failed run is logged and doesn't stop the loop.
func Schedule(ctx context.Context, config *configuration.Data) error {
	activation, err := cron.ParseStandard(config.CronSchedule)
	if err != nil {
		return fmt.Errorf("while parsing the cron schedule %q: %w", config.CronSchedule, err)
	}

	for {
		if err := run.Update(ctx, config, false); err != nil {
			log.Error(err, "Update run failed")
		}

		if ctx.Err() != nil {
			return nil
		}

		next := activation.Next(time.Now())
		log.Info("Waiting for the next activation", "next", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Interruption requested, exiting the schedule loop")
			return nil
		case <-timer.C:
		}
	}
}
