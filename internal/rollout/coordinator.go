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
	"sync"

	"github.com/layersync/layersync/pkg/artifact"
	"github.com/layersync/layersync/pkg/log"
)

// defaultConcurrency bounds the simultaneous per-target pipelines when
// the caller doesn't
const defaultConcurrency = 5

// Coordinator fans a rollout out to every configured target, one
// pipeline per target, isolating their failures from each other
type Coordinator struct {
	// Targets are the deployment scopes to synchronize
	Targets []Target

	// ReferenceTargetName designates the target used for change
	// detection
	ReferenceTargetName string

	// Detector decides whether a rollout is needed at all
	Detector *ChangeDetector

	// Pipeline runs the per-target sequence
	Pipeline *TargetPipeline

	// Concurrency bounds the simultaneous pipelines, defaulted when
	// not positive
	Concurrency int

	// Force runs the pipelines even when change detection finds the
	// published content current
	Force bool
}

// Run performs one rollout, returning the outcome for every configured
// target, each target always present in the result
func (c *Coordinator) Run(
	ctx context.Context,
	art *artifact.Artifact,
	container []byte,
	description string,
) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(c.Targets))

	if !c.Force {
		reference := ReferenceTarget(c.Targets, c.ReferenceTargetName)
		if !c.Detector.NeedsUpdate(art, reference) {
			for _, target := range c.Targets {
				outcomes[target.Name] = Skipped(ReasonUpToDate)
			}
			return outcomes
		}
	} else {
		log.Log.Info("Change detection bypassed, forcing the rollout")
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > len(c.Targets) {
		concurrency = len(c.Targets)
	}
	semaphore := make(chan struct{}, concurrency)

	var mx sync.Mutex
	var wg sync.WaitGroup
	for _, target := range c.Targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() {
				<-semaphore
			}()

			var outcome Outcome
			if ctx.Err() != nil {
				outcome = Skipped(ReasonShutdown)
			} else {
				outcome = c.runGuarded(ctx, target, container, description)
			}

			mx.Lock()
			outcomes[target.Name] = outcome
			mx.Unlock()
		}()
	}
	wg.Wait()

	return outcomes
}

// runGuarded confines a pipeline panic to its own target, turning it
// into a failed outcome instead of tearing the whole run down
func (c *Coordinator) runGuarded(
	ctx context.Context,
	target Target,
	container []byte,
	description string,
) (outcome Outcome) {
	defer func() {
		if cause := recover(); cause != nil {
			log.Log.Info("Pipeline panicked", "target", target.Name, "cause", cause)
			outcome = Failed(fmt.Errorf("pipeline for target %q panicked: %v", target.Name, cause))
		}
	}()

	return c.Pipeline.Run(ctx, target, container, description)
}
