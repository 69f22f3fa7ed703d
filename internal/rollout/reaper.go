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
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/layersync/layersync/pkg/registry"
)

// errReferenceFound short-circuits the consumer enumeration as soon as
// a live reference is found
var errReferenceFound = errors.New("reference found")

// VersionReaper deletes the versions of a target beyond the retention
// horizon which no consumer references anymore
type VersionReaper struct {
	// KeepLatest is the retention horizon: that many most recent
	// versions are never deletion candidates, whatever their usage
	KeepLatest int

	// CallTimeout bounds each registry call
	CallTimeout time.Duration
}

// Reap evaluates every version beyond the retention horizon, deleting
// the unreferenced ones. A failed liveness check keeps the version: an
// unknown usage is treated as in-use. Per-version deletion failures
// are logged without blocking the evaluation of the other versions.
func (r *VersionReaper) Reap(
	ctx context.Context,
	artifacts registry.ArtifactRegistry,
	consumers registry.ConsumerRegistry,
	logger logr.Logger,
) error {
	listCtx, cancelList := callContext(r.CallTimeout)
	defer cancelList()
	versions, err := artifacts.ListVersions(listCtx)
	if err != nil {
		return err
	}

	if len(versions) <= r.KeepLatest {
		return nil
	}

	for _, version := range versions[r.KeepLatest:] {
		versionLogger := logger.WithValues("sequence", version.Sequence)

		usage := r.usageOf(ctx, consumers, version)
		if usage != registry.UsageNotInUse {
			versionLogger.Info("Retaining version", "usage", usage.String())
			continue
		}

		deleteCtx, cancelDelete := callContext(r.CallTimeout)
		err := artifacts.DeleteVersion(deleteCtx, version.Sequence)
		cancelDelete()
		if err != nil {
			versionLogger.Error(err, "Cannot delete superseded version")
			continue
		}

		versionLogger.Info("Deleted unreferenced version")
	}

	return nil
}

// usageOf runs the liveness check of one version over the consumer
// set. A check failure yields UsageUnknown, which the caller treats as
// in-use.
func (r *VersionReaper) usageOf(
	ctx context.Context,
	consumers registry.ConsumerRegistry,
	version registry.Version,
) registry.Usage {
	err := consumers.ForEachConsumer(ctx, func(consumer registry.Consumer) error {
		readCtx, cancelRead := callContext(r.CallTimeout)
		defer cancelRead()
		references, err := consumers.References(readCtx, consumer.Name)
		if err != nil {
			return err
		}

		for _, reference := range references {
			if reference == version.ID {
				return errReferenceFound
			}
		}
		return nil
	})

	switch {
	case err == nil:
		return registry.UsageNotInUse
	case errors.Is(err, errReferenceFound):
		return registry.UsageInUse
	default:
		return registry.UsageUnknown
	}
}
