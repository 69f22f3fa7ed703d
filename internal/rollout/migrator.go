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

	"github.com/go-logr/logr"

	"github.com/layersync/layersync/pkg/registry"
)

// ConsumerMigrator rebinds every consumer of a target still holding a
// stale family reference to a newly published version
type ConsumerMigrator struct {
	// Family is the stable identifier references are matched on
	Family string

	// CallTimeout bounds each registry call
	CallTimeout time.Duration
}

// Migrate walks every consumer of the target, replacing its family
// reference, if any, with newRef. Unrelated references keep their
// identity and position. Per-consumer failures are logged and counted
// without stopping the enumeration; an enumeration failure is
// returned.
func (m *ConsumerMigrator) Migrate(
	ctx context.Context,
	consumers registry.ConsumerRegistry,
	newRef string,
	logger logr.Logger,
) (migrated int, failed int, err error) {
	err = consumers.ForEachConsumer(ctx, func(consumer registry.Consumer) error {
		consumerLogger := logger.WithValues("consumer", consumer.Name)

		readCtx, cancelRead := callContext(m.CallTimeout)
		defer cancelRead()
		references, err := consumers.References(readCtx, consumer.Name)
		if err != nil {
			consumerLogger.Error(err, "Cannot read consumer references, skipping it")
			failed++
			return nil
		}

		rebound, changed := m.rebind(references, newRef)
		if !changed {
			return nil
		}

		writeCtx, cancelWrite := callContext(m.CallTimeout)
		defer cancelWrite()
		if err := consumers.SetReferences(writeCtx, consumer.Name, rebound); err != nil {
			consumerLogger.Error(err, "Cannot update consumer references")
			failed++
			return nil
		}

		consumerLogger.Info("Consumer migrated", "reference", newRef)
		migrated++
		return nil
	})

	return migrated, failed, err
}

// rebind replaces the family references of a reference set with
// newRef, preserving the order and the identity of everything else
func (m *ConsumerMigrator) rebind(references []string, newRef string) ([]string, bool) {
	changed := false
	rebound := make([]string, len(references))

	for i, reference := range references {
		if registry.IsFamilyRef(reference, m.Family) && reference != newRef {
			rebound[i] = newRef
			changed = true
			continue
		}
		rebound[i] = reference
	}

	return rebound, changed
}
