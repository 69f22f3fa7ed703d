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

// Package fetch downloads the raw artifact from the configured source,
// in either authenticated direct mode or unauthenticated mirror mode
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/layersync/layersync/pkg/fileutils"
	"github.com/layersync/layersync/pkg/log"
)

var (
	// ErrTimeout is raised when the download doesn't complete in time
	ErrTimeout = errors.New("artifact download timed out")

	// ErrNotFound is raised when the source has no artifact at the
	// configured location
	ErrNotFound = errors.New("artifact not found at source")

	// ErrTooSmall is raised when the downloaded artifact is below the
	// configured size floor
	ErrTooSmall = errors.New("downloaded artifact is too small")
)

const (
	defaultDirectAttempts = 5
	defaultMirrorAttempts = 3
	defaultMinBytes       = 1024
	defaultDirectBaseURL  = "https://download.maxmind.com/geoip/databases"
)

// Config describes where and how the artifact is downloaded
type Config struct {
	// DirectMode selects the authenticated origin download instead of
	// the mirror
	DirectMode bool

	// AccountID and LicenseKey authenticate direct downloads
	AccountID  string
	LicenseKey string

	// EditionID is the artifact edition downloaded in direct mode,
	// also used to choose between multiple payloads in an archive
	EditionID string

	// Suffix is the direct download format, e.g. "tar.gz" or "mmdb"
	Suffix string

	// MirrorURL is the unauthenticated download location
	MirrorURL string

	// DirectBaseURL overrides the origin used for direct downloads,
	// e.g. to go through a caching proxy
	DirectBaseURL string

	// MinBytes is the minimum acceptable artifact size
	MinBytes int64

	// Timeout bounds every download attempt
	Timeout time.Duration

	// Attempts overrides the per-mode default retry count when
	// greater than zero
	Attempts int

	// RetryDelay is the pause between download attempts
	RetryDelay time.Duration

	// TempDir is where downloads are landed, defaulting to the system
	// temporary directory
	TempDir string
}

// Fetcher downloads the artifact payload into a temporary file
type Fetcher struct {
	config Config
	client *http.Client
}

// NewFetcher creates a Fetcher for the passed configuration
func NewFetcher(config Config) *Fetcher {
	if config.MinBytes == 0 {
		config.MinBytes = defaultMinBytes
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}

	return &Fetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Fetch downloads the artifact, extracting it from a nested archive
// when needed, and returns the location of the payload file. The
// caller owns the returned file.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if f.config.DirectMode {
		return f.fetchWithRetry(ctx, f.directURL(), f.attempts(defaultDirectAttempts), true)
	}
	return f.fetchWithRetry(ctx, f.config.MirrorURL, f.attempts(defaultMirrorAttempts), false)
}

func (f *Fetcher) attempts(fallback int) int {
	if f.config.Attempts > 0 {
		return f.config.Attempts
	}
	return fallback
}

func (f *Fetcher) directURL() string {
	base := f.config.DirectBaseURL
	if base == "" {
		base = defaultDirectBaseURL
	}
	return fmt.Sprintf("%s/%s/download?suffix=%s", base, f.config.EditionID, f.config.Suffix)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, source string, attempts int, authenticated bool) (string, error) {
	var payloadPath string

	err := retry.Do(
		func() error {
			downloaded, err := f.downloadOnce(ctx, source, authenticated)
			if err != nil {
				return err
			}
			payloadPath = downloaded
			return nil
		},
		retry.Attempts(uint(attempts)), // #nosec G115
		retry.Delay(f.config.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Info("Artifact download failed, retrying",
				"attempt", attempt+1,
				"maxAttempts", attempts,
				"source", RedactURL(source),
				"error", err.Error())
		}),
	)
	if err != nil {
		return "", err
	}

	return payloadPath, nil
}

// downloadOnce performs a single download attempt, landing the bytes
// into a timestamped temporary file
func (f *Fetcher) downloadOnce(ctx context.Context, source string, authenticated bool) (resultPath string, err error) {
	startTime := time.Now()
	log.Info("Downloading artifact", "source", RedactURL(source))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("while building download request: %w", err)
	}
	if authenticated {
		request.SetBasicAuth(f.config.AccountID, f.config.LicenseKey)
	}

	response, err := f.client.Do(request)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("while downloading artifact: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case response.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unexpected response status %v from the artifact source", response.StatusCode)
	}

	downloadPath := f.downloadFileName()
	size, err := landBody(response.Body, downloadPath)
	if err != nil {
		_ = fileutils.RemoveFile(downloadPath)
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}

	if size < f.config.MinBytes {
		_ = fileutils.RemoveFile(downloadPath)
		return "", fmt.Errorf("%w: %v bytes", ErrTooSmall, size)
	}

	log.Info("Artifact downloaded",
		"bytes", size,
		"elapsed", time.Since(startTime).String())

	if strings.HasSuffix(downloadPath, ".tar.gz") {
		defer func() {
			_ = fileutils.RemoveFile(downloadPath)
		}()
		return f.extractPayload(downloadPath)
	}

	return downloadPath, nil
}

func (f *Fetcher) downloadFileName() string {
	timestamp := time.Now().Format("20060102_150405.000000000")
	if f.config.DirectMode {
		return filepath.Join(f.config.TempDir,
			fmt.Sprintf("direct_%s_%s.%s", f.config.EditionID, timestamp, f.config.Suffix))
	}
	return filepath.Join(f.config.TempDir, fmt.Sprintf("mirror_%s.mmdb", timestamp))
}

// landBody copies a response body into the target file, returning the
// number of bytes written
func landBody(body io.Reader, target string) (size int64, err error) {
	output, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("while creating download file: %w", err)
	}
	defer func() {
		closeError := output.Close()
		if err == nil && closeError != nil {
			err = closeError
		}
	}()

	size, err = io.Copy(output, body)
	if err != nil {
		return 0, fmt.Errorf("while landing the download: %w", err)
	}
	return size, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlError *url.Error
	if errors.As(err, &urlError) {
		return urlError.Timeout()
	}
	return false
}

// RedactURL strips credentials from a URL before it reaches the logs
func RedactURL(source string) string {
	parsed, err := url.Parse(source)
	if err != nil {
		return "[unparsable-url]"
	}
	parsed.User = nil
	return parsed.Redacted()
}
