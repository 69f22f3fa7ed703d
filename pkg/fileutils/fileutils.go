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

// Package fileutils contains the utility functions about
// file management
package fileutils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/layersync/layersync/pkg/log"
)

// FileExists check if a file exists, and return an error otherwise
func FileExists(fileName string) (bool, error) {
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CopyFile copy a file from a location to another one
func CopyFile(source, destination string) (err error) {
	in, err := os.Open(source) // #nosec
	if err != nil {
		return err
	}
	defer func() {
		closeError := in.Close()
		if err == nil && closeError != nil {
			err = closeError
		}
	}()

	out, err := os.Create(destination)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// FileSize returns the length in bytes of a certain file,
// or zero if the file doesn't exist
func FileSize(fileName string) (int64, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}

// RemoveFile removes a file, not failing when it doesn't exist
func RemoveFile(fileName string) error {
	err := os.Remove(fileName)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveAgedEntries removes the files and the directories matching the
// passed glob patterns whose modification time is older than maxAge.
// Removal failures are logged and don't stop the scan.
// It returns the number of entries actually removed.
func RemoveAgedEntries(patterns []string, maxAge time.Duration) int {
	removed := 0
	now := time.Now()

	for _, pattern := range patterns {
		entries, err := filepath.Glob(pattern)
		if err != nil {
			log.Error(err, "Skipping malformed cleanup pattern", "pattern", pattern)
			continue
		}

		for _, entry := range entries {
			info, err := os.Stat(entry)
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) <= maxAge {
				continue
			}

			if err := os.RemoveAll(entry); err != nil {
				log.Error(err, "Cannot remove aged entry", "entry", entry)
				continue
			}
			log.Info("Removed aged entry", "entry", entry)
			removed++
		}
	}

	return removed
}
