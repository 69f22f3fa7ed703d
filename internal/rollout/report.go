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
	"fmt"
	"sort"

	"github.com/go-logr/logr"
)

// Summary condenses the outcomes of one rollout run into per-status
// counters and a stable, per-target line set
type Summary struct {
	// Succeeded counts the targets with a new live version
	Succeeded int

	// Skipped counts the targets whose pipeline never ran
	Skipped int

	// Failed counts the targets whose publication failed
	Failed int

	// Lines describes every target, sorted by target name
	Lines []string
}

// Successful reports whether no target failed
func (s Summary) Successful() bool {
	return s.Failed == 0
}

// Summarize reduces the per-target outcomes to a summary. Every target
// in the outcome set yields exactly one line.
func Summarize(outcomes map[string]Outcome) Summary {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	var summary Summary
	for _, name := range names {
		outcome := outcomes[name]
		switch outcome.Status {
		case StatusSucceeded:
			summary.Succeeded++
			summary.Lines = append(summary.Lines, fmt.Sprintf(
				"%s: succeeded, version %d live, %d consumers migrated",
				name, outcome.Version.Sequence, outcome.MigratedConsumers))
		case StatusSkipped:
			summary.Skipped++
			summary.Lines = append(summary.Lines, fmt.Sprintf(
				"%s: skipped, %s", name, outcome.Reason))
		case StatusFailed:
			summary.Failed++
			summary.Lines = append(summary.Lines, fmt.Sprintf(
				"%s: failed, %v", name, outcome.Err))
		}
	}

	return summary
}

// Emit logs the summary, one record per target plus the overall
// counters
func (s Summary) Emit(logger logr.Logger) {
	for _, line := range s.Lines {
		logger.Info(line)
	}
	logger.Info("Rollout completed",
		"succeeded", s.Succeeded,
		"skipped", s.Skipped,
		"failed", s.Failed)
}
