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

// Package configuration contains the settings of the synchronizer,
// read from environment variables and from an optional settings file
package configuration

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/layersync/layersync/pkg/configparser"
)

// The actions settings are validated for
const (
	ActionUpdate   = "update"
	ActionCheck    = "check"
	ActionSchedule = "schedule"
	ActionCleanup  = "cleanup"
)

// Data is the configuration of the synchronizer
type Data struct {
	// Targets is the list of deployment scopes to keep synchronized
	Targets []string `env:"TARGETS"`

	// ReferenceTarget designates the target consulted for change
	// detection. When it doesn't name a configured target, the first
	// one is used.
	ReferenceTarget string `env:"REFERENCE_TARGET"`

	// LayerFamily is the stable name grouping the published versions
	LayerFamily string `env:"LAYER_FAMILY"`

	// RetainVersions is how many most recent versions are never reaped
	RetainVersions int `env:"RETAIN_VERSIONS"`

	// WorkerConcurrency bounds the simultaneous per-target pipelines
	WorkerConcurrency int `env:"WORKER_CONCURRENCY"`

	// CallTimeout bounds each registry call
	CallTimeout time.Duration `env:"CALL_TIMEOUT"`

	// RetryAttempts bounds the publication retries per target
	RetryAttempts int `env:"RETRY_ATTEMPTS"`

	// RetryDelay spaces the publication retries
	RetryDelay time.Duration `env:"RETRY_DELAY"`

	// DirectDownload selects the authenticated upstream download
	// instead of the mirror
	DirectDownload bool `env:"DIRECT_DOWNLOAD"`

	// AccountID authenticates the direct download
	AccountID string `env:"MAXMIND_ACCOUNT_ID"`

	// LicenseKey authenticates the direct download
	LicenseKey string `env:"MAXMIND_LICENSE_KEY"`

	// EditionID names the database edition to download
	EditionID string `env:"EDITION_ID"`

	// DownloadSuffix is the archive suffix of the direct download
	DownloadSuffix string `env:"DOWNLOAD_SUFFIX"`

	// MirrorURL is the unauthenticated download location
	MirrorURL string `env:"MIRROR_URL"`

	// DownloadTimeout bounds each download attempt
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT"`

	// MinArtifactBytes rejects truncated downloads
	MinArtifactBytes int64 `env:"MIN_ARTIFACT_BYTES"`

	// ObjectStoreEndpoint is the host:port of the registry backend
	ObjectStoreEndpoint string `env:"OBJECTSTORE_ENDPOINT"`

	// ObjectStoreAccessKey authenticates against the registry backend
	ObjectStoreAccessKey string `env:"OBJECTSTORE_ACCESS_KEY"`

	// ObjectStoreSecretKey authenticates against the registry backend
	ObjectStoreSecretKey string `env:"OBJECTSTORE_SECRET_KEY"`

	// ObjectStoreRegion is the region of the registry backend
	ObjectStoreRegion string `env:"OBJECTSTORE_REGION"`

	// ObjectStoreUseSSL toggles TLS towards the registry backend
	ObjectStoreUseSSL bool `env:"OBJECTSTORE_USE_SSL"`

	// BucketPrefix prefixes the per-target bucket names
	BucketPrefix string `env:"BUCKET_PREFIX"`

	// LockFile serializes the mutating actions on this host
	LockFile string `env:"LOCK_FILE"`

	// CronSchedule drives the schedule action
	CronSchedule string `env:"CRON_SCHEDULE"`

	// TempDir is where downloads and extractions land
	TempDir string `env:"TEMP_DIR"`

	// FreshTempMaxAge is the temp-file age threshold applied right
	// after an update, when leftovers of the current run must survive
	FreshTempMaxAge time.Duration `env:"FRESH_TEMP_MAX_AGE"`

	// StaleTempMaxAge is the temp-file age threshold of a standalone
	// cleanup
	StaleTempMaxAge time.Duration `env:"STALE_TEMP_MAX_AGE"`
}

// newDefaultConfig holds the values used for missing or malformed
// settings
func newDefaultConfig() *Data {
	return &Data{
		LayerFamily:       "GeoLite2",
		RetainVersions:    2,
		WorkerConcurrency: 5,
		CallTimeout:       60 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
		EditionID:         "GeoLite2-City",
		DownloadSuffix:    "tar.gz",
		DownloadTimeout:   5 * time.Minute,
		MinArtifactBytes:  1024,
		ObjectStoreRegion: "us-east-1",
		BucketPrefix:      "layersync",
		LockFile:          "/tmp/layersync.lock",
		CronSchedule:      "0 2 * * *",
		TempDir:           os.TempDir(),
		FreshTempMaxAge:   time.Hour,
		StaleTempMaxAge:   24 * time.Hour,
	}
}

// Load reads the configuration from the environment, optionally
// overridden by a flat YAML settings file
func Load(settingsFile string) (*Data, error) {
	settings := map[string]string{}
	if settingsFile != "" {
		content, err := os.ReadFile(settingsFile) // #nosec
		if err != nil {
			return nil, fmt.Errorf("while reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(content, &settings); err != nil {
			return nil, fmt.Errorf("while parsing settings file: %w", err)
		}
	}

	config := &Data{}
	configparser.ReadSettings(config, newDefaultConfig(), settings)
	return config, nil
}

// BucketName is the name of the registry bucket backing a target
func (config *Data) BucketName(target string) string {
	return fmt.Sprintf("%s-%s", config.BucketPrefix, strings.ToLower(target))
}

// ConfigurationError reports the settings an action cannot run without
type ConfigurationError struct {
	// Action is the action that was requested
	Action string

	// Missing lists the unset required settings
	Missing []string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("action %q requires the following settings: %s",
		e.Action, strings.Join(e.Missing, ", "))
}

// Validate checks that every setting the action depends on is present,
// failing before any work starts
func (config *Data) Validate(action string) error {
	var missing []string

	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require("TARGETS", strings.Join(config.Targets, ""))
	require("OBJECTSTORE_ENDPOINT", config.ObjectStoreEndpoint)
	require("OBJECTSTORE_ACCESS_KEY", config.ObjectStoreAccessKey)
	require("OBJECTSTORE_SECRET_KEY", config.ObjectStoreSecretKey)

	switch action {
	case ActionUpdate, ActionSchedule:
		if config.DirectDownload {
			require("MAXMIND_ACCOUNT_ID", config.AccountID)
			require("MAXMIND_LICENSE_KEY", config.LicenseKey)
		} else {
			require("MIRROR_URL", config.MirrorURL)
		}
		require("LOCK_FILE", config.LockFile)
	case ActionCleanup:
		require("LOCK_FILE", config.LockFile)
	case ActionCheck:
		// read-only, the registry settings are enough
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	if len(missing) > 0 {
		return &ConfigurationError{Action: action, Missing: missing}
	}
	return nil
}
