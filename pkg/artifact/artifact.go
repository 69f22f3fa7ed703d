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

// Package artifact contains the handle to a fetched payload and the
// content fingerprinting primitives used for change detection
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/layersync/layersync/pkg/fileutils"
)

// Artifact is a payload landed in a temporary file. It is immutable
// once created and owned by the rollout run that fetched it: Release
// must be invoked on every exit path to reclaim the backing storage.
type Artifact struct {
	path string
	size int64

	mx          sync.Mutex
	fingerprint string
	released    bool
}

// New creates an Artifact from the file the payload has been landed into
func New(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("while inspecting artifact file: %w", err)
	}

	return &Artifact{
		path: path,
		size: info.Size(),
	}, nil
}

// Path returns the location of the backing file
func (a *Artifact) Path() string {
	return a.path
}

// Size returns the length of the payload in bytes
func (a *Artifact) Size() int64 {
	return a.size
}

// Fingerprint gets the content fingerprint of the payload. The digest
// is computed once over the full byte stream and then cached.
func (a *Artifact) Fingerprint() (string, error) {
	a.mx.Lock()
	defer a.mx.Unlock()

	if a.fingerprint != "" {
		return a.fingerprint, nil
	}

	digest, err := FingerprintFile(a.path)
	if err != nil {
		return "", err
	}

	a.fingerprint = digest
	return a.fingerprint, nil
}

// Release removes the backing file. It is idempotent and safe to
// invoke after a partial failure.
func (a *Artifact) Release() {
	a.mx.Lock()
	defer a.mx.Unlock()

	if a.released {
		return
	}

	a.released = true
	_ = fileutils.RemoveFile(a.path)
}

// FingerprintFile computes the content fingerprint of a file
func FingerprintFile(path string) (string, error) {
	stream, err := os.Open(path) // #nosec
	if err != nil {
		return "", fmt.Errorf("while opening file for fingerprinting: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	return FingerprintReader(stream)
}

// FingerprintReader computes the content fingerprint of a byte stream
func FingerprintReader(reader io.Reader) (string, error) {
	encoder := sha256.New()
	if _, err := io.Copy(encoder, reader); err != nil {
		return "", fmt.Errorf("while fingerprinting content: %w", err)
	}

	return hex.EncodeToString(encoder.Sum(nil)), nil
}
