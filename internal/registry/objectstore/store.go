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

package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/layersync/layersync/pkg/artifact"
	"github.com/layersync/layersync/pkg/registry"
)

const (
	containerName      = "layer.zip"
	consumerPrefix     = "functions/"
	consumerSuffix     = ".json"
	fingerprintMetaKey = "Fingerprint"
	descriptionMetaKey = "Description"
)

// Store exposes the layer registry and the consumer registry of one
// target through its backing bucket
type Store struct {
	client *minio.Client
	bucket string
	family string
}

// NewStore creates a Store for one target
func NewStore(client *minio.Client, bucket, family string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		family: family,
	}
}

func (s *Store) versionPrefix() string {
	return fmt.Sprintf("layers/%s/", s.family)
}

func (s *Store) versionKey(sequence int64) string {
	return fmt.Sprintf("%sv%d/%s", s.versionPrefix(), sequence, containerName)
}

// parseVersionKey extracts the sequence number out of a version object
// key, returning false for keys outside the version layout
func parseVersionKey(key, prefix string) (int64, bool) {
	trimmed, found := strings.CutPrefix(key, prefix)
	if !found {
		return 0, false
	}

	segment, _, found := strings.Cut(trimmed, "/")
	if !found || !strings.HasPrefix(segment, "v") {
		return 0, false
	}

	sequence, err := strconv.ParseInt(segment[1:], 10, 64)
	if err != nil || sequence <= 0 {
		return 0, false
	}
	return sequence, true
}

// Publish implements the ArtifactRegistry interface, assigning the
// next sequence number of the target
func (s *Store) Publish(ctx context.Context, container []byte, description string) (registry.Version, error) {
	versions, err := s.ListVersions(ctx)
	if err != nil {
		return registry.Version{}, fmt.Errorf("while computing the next sequence number: %w", err)
	}

	var sequence int64 = 1
	if len(versions) > 0 {
		sequence = versions[0].Sequence + 1
	}

	fingerprint, err := artifact.FingerprintReader(bytes.NewReader(container))
	if err != nil {
		return registry.Version{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, s.versionKey(sequence),
		bytes.NewReader(container), int64(len(container)),
		minio.PutObjectOptions{
			ContentType: "application/zip",
			UserMetadata: map[string]string{
				fingerprintMetaKey: fingerprint,
				descriptionMetaKey: description,
			},
		})
	if err != nil {
		return registry.Version{}, fmt.Errorf("while publishing version %v: %w", sequence, err)
	}

	return registry.Version{
		Sequence:    sequence,
		ID:          registry.Ref(s.family, sequence),
		CreatedAt:   info.LastModified,
		Fingerprint: fingerprint,
	}, nil
}

// ListVersions implements the ArtifactRegistry interface
func (s *Store) ListVersions(ctx context.Context) ([]registry.Version, error) {
	var versions []registry.Version

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       s.versionPrefix(),
		Recursive:    true,
		WithMetadata: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("while listing versions: %w", object.Err)
		}

		sequence, ok := parseVersionKey(object.Key, s.versionPrefix())
		if !ok {
			continue
		}

		versions = append(versions, registry.Version{
			Sequence:    sequence,
			ID:          registry.Ref(s.family, sequence),
			CreatedAt:   object.LastModified,
			Fingerprint: object.UserMetadata["X-Amz-Meta-"+fingerprintMetaKey],
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Sequence > versions[j].Sequence
	})
	return versions, nil
}

// VersionContent implements the ArtifactRegistry interface
func (s *Store) VersionContent(ctx context.Context, sequence int64) (io.ReadCloser, error) {
	key := s.versionKey(sequence)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, registry.ErrNoContent
		}
		return nil, fmt.Errorf("while locating the content of version %v: %w", sequence, err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("while fetching the content of version %v: %w", sequence, err)
	}
	return object, nil
}

// DeleteVersion implements the ArtifactRegistry interface
func (s *Store) DeleteVersion(ctx context.Context, sequence int64) error {
	key := s.versionKey(sequence)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return registry.ErrVersionNotFound
		}
		return fmt.Errorf("while locating version %v: %w", sequence, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("while deleting version %v: %w", sequence, err)
	}
	return nil
}

// consumerDocument is the stored representation of a consumer
type consumerDocument struct {
	Name   string   `json:"name"`
	Layers []string `json:"layers"`
}

func consumerKey(name string) string {
	return consumerPrefix + name + consumerSuffix
}

// consumerName extracts the consumer name out of its object key,
// returning false for keys outside the consumer layout
func consumerName(key string) (string, bool) {
	trimmed, found := strings.CutPrefix(key, consumerPrefix)
	if !found || !strings.HasSuffix(trimmed, consumerSuffix) || strings.Contains(trimmed, "/") {
		return "", false
	}

	name := strings.TrimSuffix(trimmed, consumerSuffix)
	if name == "" {
		return "", false
	}
	return name, true
}

// ForEachConsumer implements the ConsumerRegistry interface
func (s *Store) ForEachConsumer(ctx context.Context, fn func(registry.Consumer) error) error {
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    consumerPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("while listing consumers: %w", object.Err)
		}

		name, ok := consumerName(object.Key)
		if !ok {
			continue
		}

		if err := fn(registry.Consumer{Name: name}); err != nil {
			return err
		}
	}
	return nil
}

// References implements the ConsumerRegistry interface
func (s *Store) References(ctx context.Context, consumer string) ([]string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, consumerKey(consumer), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("while fetching consumer %q: %w", consumer, err)
	}
	defer func() {
		_ = object.Close()
	}()

	var document consumerDocument
	if err := json.NewDecoder(object).Decode(&document); err != nil {
		return nil, fmt.Errorf("while decoding consumer %q: %w", consumer, err)
	}
	return document.Layers, nil
}

// SetReferences implements the ConsumerRegistry interface
func (s *Store) SetReferences(ctx context.Context, consumer string, references []string) error {
	document := consumerDocument{
		Name:   path.Base(consumer),
		Layers: references,
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("while encoding consumer %q: %w", consumer, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, consumerKey(consumer),
		bytes.NewReader(encoded), int64(len(encoded)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("while updating consumer %q: %w", consumer, err)
	}
	return nil
}
