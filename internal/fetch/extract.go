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

package fetch

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/layersync/layersync/pkg/log"
)

// payloadSuffix is the naming convention locating the payload file
// inside a downloaded archive
const payloadSuffix = ".mmdb"

// extractPayload scans a tar.gz archive for the payload file and lands
// it into its own temporary file. When the archive contains more than
// one candidate, the one whose name embeds the edition id wins.
func (f *Fetcher) extractPayload(archivePath string) (resultPath string, err error) {
	log.Info("Extracting payload from archive", "archive", archivePath)

	candidate, err := f.selectPayloadEntry(archivePath)
	if err != nil {
		return "", err
	}
	if candidate == "" {
		return "", fmt.Errorf("no %q payload found in the downloaded archive", payloadSuffix)
	}

	output, err := os.CreateTemp(f.config.TempDir, "extracted_*"+payloadSuffix)
	if err != nil {
		return "", fmt.Errorf("while creating the payload file: %w", err)
	}
	defer func() {
		closeError := output.Close()
		if err == nil && closeError != nil {
			err = closeError
		}
		if err != nil {
			_ = os.Remove(output.Name())
		}
	}()

	if err := f.copyEntry(archivePath, candidate, output); err != nil {
		return "", err
	}

	log.Info("Payload extracted", "entry", candidate, "payload", output.Name())
	return output.Name(), nil
}

// selectPayloadEntry walks the archive once, returning the name of the
// entry holding the payload
func (f *Fetcher) selectPayloadEntry(archivePath string) (string, error) {
	var candidate string

	err := f.walkArchive(archivePath, func(header *tar.Header, _ io.Reader) error {
		name := path.Base(header.Name)
		if !strings.HasSuffix(name, payloadSuffix) {
			return nil
		}
		if candidate == "" {
			candidate = header.Name
		} else if f.config.EditionID != "" && strings.Contains(name, f.config.EditionID) {
			candidate = header.Name
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return candidate, nil
}

// copyEntry extracts a single entry of the archive into the output stream
func (f *Fetcher) copyEntry(archivePath, entryName string, output io.Writer) error {
	found := false

	err := f.walkArchive(archivePath, func(header *tar.Header, content io.Reader) error {
		if header.Name != entryName {
			return nil
		}
		found = true
		if _, err := io.Copy(output, content); err != nil { // #nosec G110
			return fmt.Errorf("while extracting %q: %w", entryName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("entry %q disappeared from the archive", entryName)
	}
	return nil
}

// walkArchive invokes fn on every regular file of a tar.gz archive
func (f *Fetcher) walkArchive(archivePath string, fn func(*tar.Header, io.Reader) error) (err error) {
	archive, err := os.Open(archivePath) // #nosec
	if err != nil {
		return fmt.Errorf("while opening the archive: %w", err)
	}
	defer func() {
		closeError := archive.Close()
		if err == nil && closeError != nil {
			err = closeError
		}
	}()

	decompressed, err := gzip.NewReader(archive)
	if err != nil {
		return fmt.Errorf("while decompressing the archive: %w", err)
	}
	defer func() {
		_ = decompressed.Close()
	}()

	entries := tar.NewReader(decompressed)
	for {
		header, err := entries.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("while scanning the archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(header, entries); err != nil {
			return err
		}
	}
}
