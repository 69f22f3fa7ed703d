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

// Package run assembles the collaborators out of the configuration and
// drives the actions the command line exposes
package run

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/layersync/layersync/internal/configuration"
	"github.com/layersync/layersync/internal/fetch"
	"github.com/layersync/layersync/internal/lock"
	"github.com/layersync/layersync/internal/pack"
	"github.com/layersync/layersync/internal/registry/objectstore"
	"github.com/layersync/layersync/internal/rollout"
	"github.com/layersync/layersync/pkg/artifact"
	"github.com/layersync/layersync/pkg/fileutils"
	"github.com/layersync/layersync/pkg/log"
)

// BuildTargets connects every configured target to its registry
// backend
func BuildTargets(config *configuration.Data) ([]rollout.Target, error) {
	storeConfig := objectstore.Config{
		Endpoint:  config.ObjectStoreEndpoint,
		AccessKey: config.ObjectStoreAccessKey,
		SecretKey: config.ObjectStoreSecretKey,
		Region:    config.ObjectStoreRegion,
		UseSSL:    config.ObjectStoreUseSSL,
	}

	client, err := objectstore.NewClient(storeConfig)
	if err != nil {
		return nil, fmt.Errorf("while connecting to the registry backend: %w", err)
	}

	targets := make([]rollout.Target, 0, len(config.Targets))
	for _, name := range config.Targets {
		store := objectstore.NewStore(client, config.BucketName(name), config.LayerFamily)
		targets = append(targets, rollout.Target{
			Name:      name,
			Artifacts: store,
			Consumers: store,
		})
	}
	return targets, nil
}

// NewFetcher builds the artifact downloader out of the configuration
func NewFetcher(config *configuration.Data) *fetch.Fetcher {
	return fetch.NewFetcher(fetch.Config{
		DirectMode: config.DirectDownload,
		AccountID:  config.AccountID,
		LicenseKey: config.LicenseKey,
		EditionID:  config.EditionID,
		Suffix:     config.DownloadSuffix,
		MirrorURL:  config.MirrorURL,
		MinBytes:   config.MinArtifactBytes,
		Timeout:    config.DownloadTimeout,
		RetryDelay: config.RetryDelay,
		TempDir:    config.TempDir,
	})
}

// newCoordinator wires the rollout components together
func newCoordinator(
	config *configuration.Data,
	targets []rollout.Target,
	packager *pack.Packager,
	force bool,
) *rollout.Coordinator {
	return &rollout.Coordinator{
		Targets:             targets,
		ReferenceTargetName: config.ReferenceTarget,
		Detector: &rollout.ChangeDetector{
			Packager:    packager,
			CallTimeout: config.CallTimeout,
		},
		Pipeline: &rollout.TargetPipeline{
			Migrator: &rollout.ConsumerMigrator{
				Family:      config.LayerFamily,
				CallTimeout: config.CallTimeout,
			},
			Reaper: &rollout.VersionReaper{
				KeepLatest:  config.RetainVersions,
				CallTimeout: config.CallTimeout,
			},
			CallTimeout:   config.CallTimeout,
			RetryAttempts: uint(config.RetryAttempts), // #nosec G115
			RetryDelay:    config.RetryDelay,
		},
		Concurrency: config.WorkerConcurrency,
		Force:       force,
	}
}

// Update performs one full synchronization run: fetch, detect,
// publish, migrate and reap across every target, under the host lock
func Update(ctx context.Context, config *configuration.Data, force bool) error {
	guard, err := lock.Acquire(config.LockFile)
	if err != nil {
		return err
	}
	defer guard.Release()

	removed := CleanupTemp(config, config.StaleTempMaxAge)
	if removed > 0 {
		log.Info("Removed aged temporary files", "count", removed)
	}

	targets, err := BuildTargets(config)
	if err != nil {
		return err
	}

	fetcher := NewFetcher(config)
	payloadPath, err := fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("while fetching the artifact: %w", err)
	}

	art, err := artifact.New(payloadPath)
	if err != nil {
		_ = fileutils.RemoveFile(payloadPath)
		return err
	}
	defer art.Release()

	packager := &pack.Packager{PayloadName: config.EditionID + ".mmdb"}
	container, err := packager.Build(art.Path())
	if err != nil {
		return fmt.Errorf("while packaging the artifact: %w", err)
	}

	description := fmt.Sprintf("%s %d bytes", config.LayerFamily, art.Size())
	coordinator := newCoordinator(config, targets, packager, force)
	outcomes := coordinator.Run(ctx, art, container, description)

	summary := rollout.Summarize(outcomes)
	summary.Emit(log.Log)
	if !summary.Successful() {
		return fmt.Errorf("%d of %d targets failed", summary.Failed, len(targets))
	}
	return nil
}

// Reap runs a standalone reclamation pass over every target, under the
// host lock
func Reap(ctx context.Context, config *configuration.Data) error {
	guard, err := lock.Acquire(config.LockFile)
	if err != nil {
		return err
	}
	defer guard.Release()

	targets, err := BuildTargets(config)
	if err != nil {
		return err
	}

	reaper := &rollout.VersionReaper{
		KeepLatest:  config.RetainVersions,
		CallTimeout: config.CallTimeout,
	}

	var failures int
	for _, target := range targets {
		if ctx.Err() != nil {
			log.Info("Interruption requested, leaving the remaining targets untouched")
			break
		}

		logger := log.Log.WithValues("target", target.Name)
		if err := reaper.Reap(ctx, target.Artifacts, target.Consumers, logger); err != nil {
			logger.Error(err, "Reaping failed")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d targets could not be reaped", failures, len(targets))
	}
	return nil
}

// CleanupTemp removes the downloads and extractions older than maxAge
// left behind by previous runs
func CleanupTemp(config *configuration.Data, maxAge time.Duration) int {
	patterns := []string{
		filepath.Join(config.TempDir, "direct_*"),
		filepath.Join(config.TempDir, "mirror_*"),
		filepath.Join(config.TempDir, "extracted_*"),
	}
	return fileutils.RemoveAgedEntries(patterns, maxAge)
}
