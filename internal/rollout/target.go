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
	"time"

	"github.com/layersync/layersync/pkg/registry"
)

// Target is an independent deployment scope with its own version
// sequence and consumer set
type Target struct {
	// Name identifies the target, e.g. a region
	Name string

	// Artifacts is the layer registry of the target
	Artifacts registry.ArtifactRegistry

	// Consumers is the consumer registry of the target
	Consumers registry.ConsumerRegistry
}

// ReferenceTarget selects the target used as the baseline for change
// detection, falling back to the first configured target when the
// designated one is missing
func ReferenceTarget(targets []Target, referenceName string) Target {
	for _, target := range targets {
		if target.Name == referenceName {
			return target
		}
	}
	return targets[0]
}

// callContext bounds one registry call. It is deliberately detached
// from the run context: an interruption must let the in-flight call
// finish instead of aborting it mid-way, leaving a version
// half-published or a consumer half-migrated.
func callContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
