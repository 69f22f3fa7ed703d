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
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/layersync/layersync/pkg/registry"
)

var errFakePublish = errors.New("publish rejected")

// fakeArtifactRegistry is an in-memory ArtifactRegistry with
// programmable failures
type fakeArtifactRegistry struct {
	mx       sync.Mutex
	family   string
	versions map[int64]registry.Version
	contents map[int64][]byte
	deleted  []int64

	publishCalls    int
	publishFailures int
	listErr         error
	deleteErr       error
}

func newFakeArtifactRegistry(family string) *fakeArtifactRegistry {
	return &fakeArtifactRegistry{
		family:   family,
		versions: make(map[int64]registry.Version),
		contents: make(map[int64][]byte),
	}
}

func (f *fakeArtifactRegistry) seed(sequence int64, content []byte) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.versions[sequence] = registry.Version{
		Sequence:  sequence,
		ID:        registry.Ref(f.family, sequence),
		CreatedAt: time.Now(),
	}
	f.contents[sequence] = content
}

func (f *fakeArtifactRegistry) sequences() []int64 {
	f.mx.Lock()
	defer f.mx.Unlock()
	result := make([]int64, 0, len(f.versions))
	for sequence := range f.versions {
		result = append(result, sequence)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (f *fakeArtifactRegistry) Publish(
	_ context.Context, container []byte, _ string,
) (registry.Version, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.publishCalls++
	if f.publishFailures > 0 {
		f.publishFailures--
		return registry.Version{}, errFakePublish
	}

	var next int64 = 1
	for sequence := range f.versions {
		if sequence >= next {
			next = sequence + 1
		}
	}

	version := registry.Version{
		Sequence:  next,
		ID:        registry.Ref(f.family, next),
		CreatedAt: time.Now(),
	}
	f.versions[next] = version
	f.contents[next] = append([]byte(nil), container...)
	return version, nil
}

func (f *fakeArtifactRegistry) ListVersions(_ context.Context) ([]registry.Version, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	result := make([]registry.Version, 0, len(f.versions))
	for _, version := range f.versions {
		result = append(result, version)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence > result[j].Sequence })
	return result, nil
}

func (f *fakeArtifactRegistry) VersionContent(_ context.Context, sequence int64) (io.ReadCloser, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	content, found := f.contents[sequence]
	if !found {
		return nil, registry.ErrNoContent
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeArtifactRegistry) DeleteVersion(_ context.Context, sequence int64) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, found := f.versions[sequence]; !found {
		return registry.ErrVersionNotFound
	}

	delete(f.versions, sequence)
	delete(f.contents, sequence)
	f.deleted = append(f.deleted, sequence)
	return nil
}

// fakeConsumerRegistry is an in-memory ConsumerRegistry with
// per-consumer programmable failures
type fakeConsumerRegistry struct {
	mx         sync.Mutex
	names      []string
	references map[string][]string

	forEachErr error
	readErrs   map[string]error
	writeErrs  map[string]error
}

func newFakeConsumerRegistry() *fakeConsumerRegistry {
	return &fakeConsumerRegistry{
		references: make(map[string][]string),
		readErrs:   make(map[string]error),
		writeErrs:  make(map[string]error),
	}
}

func (f *fakeConsumerRegistry) seed(name string, references ...string) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.names = append(f.names, name)
	f.references[name] = references
}

func (f *fakeConsumerRegistry) referencesOf(name string) []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	return append([]string(nil), f.references[name]...)
}

func (f *fakeConsumerRegistry) ForEachConsumer(
	_ context.Context, fn func(registry.Consumer) error,
) error {
	if f.forEachErr != nil {
		return f.forEachErr
	}

	f.mx.Lock()
	names := append([]string(nil), f.names...)
	f.mx.Unlock()

	for _, name := range names {
		if err := fn(registry.Consumer{Name: name}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeConsumerRegistry) References(_ context.Context, consumer string) ([]string, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if err := f.readErrs[consumer]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.references[consumer]...), nil
}

func (f *fakeConsumerRegistry) SetReferences(
	_ context.Context, consumer string, references []string,
) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if err := f.writeErrs[consumer]; err != nil {
		return err
	}
	f.references[consumer] = append([]string(nil), references...)
	return nil
}

// passthroughPackager treats the container as its own payload, letting
// the specs feed raw bytes through the change detector
type passthroughPackager struct{}

func (passthroughPackager) ExtractPayload(container []byte) ([]byte, error) {
	return container, nil
}
