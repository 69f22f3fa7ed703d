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

// Package registry defines the interfaces through which the rollout
// orchestrator talks to the layer registry of each target, together
// with the data types they exchange
package registry

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoContent is raised when the content of a published version
	// cannot be located in the registry
	ErrNoContent = errors.New("version content not available")

	// ErrVersionNotFound is raised when deleting a version that
	// doesn't exist
	ErrVersionNotFound = errors.New("version not found")

	// ErrVersionInUse is raised when the registry refuses to delete a
	// version because some consumer still references it
	ErrVersionInUse = errors.New("version still in use")
)

// ArtifactRegistry exposes the versioned layer store of one target.
// Version sequence numbers are assigned by the registry and strictly
// increase within a target; published content is immutable.
type ArtifactRegistry interface {
	// Publish stores a new version of the layer container, returning
	// the version created by the registry
	Publish(ctx context.Context, container []byte, description string) (Version, error)

	// ListVersions returns every published version of the layer
	// family, ordered by descending sequence number
	ListVersions(ctx context.Context) ([]Version, error)

	// VersionContent streams the container bytes of a published
	// version, or fails with ErrNoContent when they cannot be located
	VersionContent(ctx context.Context, sequence int64) (io.ReadCloser, error)

	// DeleteVersion removes a published version. It fails with
	// ErrVersionNotFound or ErrVersionInUse when appropriate.
	DeleteVersion(ctx context.Context, sequence int64) error
}

// ConsumerRegistry exposes the downstream consumers of one target
type ConsumerRegistry interface {
	// ForEachConsumer enumerates every consumer of the target,
	// invoking fn once per consumer. Enumeration is restartable: a
	// second call walks the full set again.
	ForEachConsumer(ctx context.Context, fn func(Consumer) error) error

	// References gets the ordered reference set of a consumer
	References(ctx context.Context, consumer string) ([]string, error)

	// SetReferences replaces the reference set of a consumer
	SetReferences(ctx context.Context, consumer string, references []string) error
}
