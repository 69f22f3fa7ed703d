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

package rollout

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"

	"github.com/layersync/layersync/pkg/log"
	"github.com/layersync/layersync/pkg/registry"
)

// TargetPipeline runs the publish, migrate and reap sequence within a
// single target. Only the publication gates the outcome: once the new
// version exists, migration and reaping problems degrade the run
// without failing it.
type TargetPipeline struct {
	// Migrator rebinds the consumers of the target
	Migrator *ConsumerMigrator

	// Reaper reclaims the superseded versions of the target
	Reaper *VersionReaper

	// CallTimeout bounds each registry call
	CallTimeout time.Duration

	// RetryAttempts bounds the publication retries
	RetryAttempts uint

	// RetryDelay spaces the publication retries
	RetryDelay time.Duration
}

// Run executes the pipeline for one target. The run context is only
// consulted between steps: a requested interruption stops the pipeline
// at the next step boundary, never mid-call.
func (p *TargetPipeline) Run(
	ctx context.Context,
	target Target,
	container []byte,
	description string,
) Outcome {
	logger := log.Log.WithValues("target", target.Name)

	version, err := p.publish(ctx, target, container, description, logger)
	if err != nil {
		logger.Error(err, "Publication failed")
		return Failed(fmt.Errorf("publishing to target %q: %w", target.Name, err))
	}
	logger.Info("Published new version", "sequence", version.Sequence, "reference", version.ID)

	if ctx.Err() != nil {
		logger.Info("Interruption requested, leaving consumers on their current version")
		return Succeeded(version, 0)
	}

	migrated, failed, err := p.Migrator.Migrate(ctx, target.Consumers, version.ID, logger)
	if err != nil {
		logger.Error(err, "Cannot enumerate consumers, migration incomplete")
	}
	if failed > 0 {
		logger.Info("Some consumers could not be migrated", "migrated", migrated, "failed", failed)
	}

	if ctx.Err() != nil {
		logger.Info("Interruption requested, skipping version reaping")
		return Succeeded(version, migrated)
	}

	if err := p.Reaper.Reap(ctx, target.Artifacts, target.Consumers, logger); err != nil {
		logger.Error(err, "Version reaping failed")
	}

	return Succeeded(version, migrated)
}

// publish uploads the container with bounded retries
func (p *TargetPipeline) publish(
	ctx context.Context,
	target Target,
	container []byte,
	description string,
	logger logr.Logger,
) (registry.Version, error) {
	attempts := p.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.DoWithData(
		func() (registry.Version, error) {
			publishCtx, cancelPublish := callContext(p.CallTimeout)
			defer cancelPublish()
			return target.Artifacts.Publish(publishCtx, container, description)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Info("Publication attempt failed, retrying",
				"attempt", attempt+1,
				"error", err.Error())
		}),
	)
}
