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

// Package rollout contains the orchestrator keeping the published
// layer versions of every target synchronized with the fetched
// artifact, migrating the consumers still bound to stale versions and
// reclaiming superseded versions once safe
package rollout

import (
	"github.com/layersync/layersync/pkg/registry"
)

// Status is the category of a per-target rollout outcome
type Status string

const (
	// StatusSucceeded means a new version is published and live
	StatusSucceeded Status = "succeeded"

	// StatusSkipped means no pipeline ran for the target
	StatusSkipped Status = "skipped"

	// StatusFailed means the target publication failed
	StatusFailed Status = "failed"
)

// The reasons attached to skipped outcomes
const (
	// ReasonUpToDate means change detection found the published
	// content identical to the fetched artifact
	ReasonUpToDate = "no update needed"

	// ReasonShutdown means an interruption was requested before the
	// target pipeline could start
	ReasonShutdown = "shutdown requested"
)

// Outcome is the result of one rollout run for one target. It is
// produced once and never mutated.
type Outcome struct {
	// Status categorizes the outcome
	Status Status

	// Version is the published version, valid when Status is
	// StatusSucceeded
	Version registry.Version

	// MigratedConsumers counts the consumers rebound to the new
	// version, valid when Status is StatusSucceeded
	MigratedConsumers int

	// Reason motivates a skipped outcome
	Reason string

	// Err details a failed outcome
	Err error
}

// Succeeded builds the outcome of a successful publication
func Succeeded(version registry.Version, migratedConsumers int) Outcome {
	return Outcome{
		Status:            StatusSucceeded,
		Version:           version,
		MigratedConsumers: migratedConsumers,
	}
}

// Skipped builds the outcome of a target whose pipeline never ran
func Skipped(reason string) Outcome {
	return Outcome{
		Status: StatusSkipped,
		Reason: reason,
	}
}

// Failed builds the outcome of a failed publication
func Failed(err error) Outcome {
	return Outcome{
		Status: StatusFailed,
		Err:    err,
	}
}
