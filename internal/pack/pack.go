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

// Package pack builds the container accepted by the layer registry
// out of a single payload file, and recovers the payload from a
// published container
package pack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
)

// payloadFolder is the folder, inside the container, where the
// runtime expects to find the payload
const payloadFolder = "python/data"

// Packager produces the registry container layout deterministically
// from one payload file
type Packager struct {
	// PayloadName is the name the payload gets inside the container,
	// whatever the source file is called
	PayloadName string
}

// entryName returns the location of the payload inside the container
func (p *Packager) entryName() string {
	return path.Join(payloadFolder, p.PayloadName)
}

// Build creates the container bytes from the payload file. Two
// invocations on the same payload produce identical bytes.
func (p *Packager) Build(payloadPath string) ([]byte, error) {
	payload, err := os.ReadFile(payloadPath) // #nosec
	if err != nil {
		return nil, fmt.Errorf("while reading payload: %w", err)
	}

	var buffer bytes.Buffer
	zipper := zip.NewWriter(&buffer)

	// a fixed header keeps the container byte-for-byte reproducible
	header := &zip.FileHeader{
		Name:   p.entryName(),
		Method: zip.Deflate,
	}
	writer, err := zipper.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("could not add %q to the container: %w", header.Name, err)
	}

	if _, err := writer.Write(payload); err != nil {
		return nil, fmt.Errorf("could not write the payload into the container: %w", err)
	}

	if err := zipper.Close(); err != nil {
		return nil, fmt.Errorf("could not close the container: %w", err)
	}

	return buffer.Bytes(), nil
}

// ExtractPayload recovers the payload from a published container
func (p *Packager) ExtractPayload(container []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return nil, fmt.Errorf("while opening the container: %w", err)
	}

	entry, err := reader.Open(p.entryName())
	if err != nil {
		return nil, fmt.Errorf("container has no %q entry: %w", p.entryName(), err)
	}
	defer func() {
		_ = entry.Close()
	}()

	payload, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("while reading the payload from the container: %w", err)
	}

	return payload, nil
}
