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
	"io"
	"time"

	"github.com/layersync/layersync/pkg/artifact"
	"github.com/layersync/layersync/pkg/log"
)

// ChangeDetector decides whether the fetched artifact differs from
// what the reference target currently publishes.
//
// Every ambiguous state resolves to "update needed": skipping a real
// update is worse than a redundant no-op rollout.
type ChangeDetector struct {
	// Packager recovers the payload from a published container
	Packager interface {
		ExtractPayload(container []byte) ([]byte, error)
	}

	// CallTimeout bounds each registry call
	CallTimeout time.Duration
}

// NeedsUpdate compares the content fingerprint of the fetched artifact
// against the one currently published in the reference target
func (d *ChangeDetector) NeedsUpdate(art *artifact.Artifact, reference Target) bool {
	logger := log.Log.WithValues("target", reference.Name)

	listCtx, cancelList := callContext(d.CallTimeout)
	defer cancelList()
	versions, err := reference.Artifacts.ListVersions(listCtx)
	if err != nil {
		logger.Info("Cannot list published versions, assuming update needed", "error", err.Error())
		return true
	}
	if len(versions) == 0 {
		logger.Info("No published version yet, update needed")
		return true
	}
	latest := versions[0]

	contentCtx, cancelContent := callContext(d.CallTimeout)
	defer cancelContent()
	content, err := reference.Artifacts.VersionContent(contentCtx, latest.Sequence)
	if err != nil {
		logger.Info("Cannot locate the published content, assuming update needed",
			"sequence", latest.Sequence,
			"error", err.Error())
		return true
	}
	defer func() {
		_ = content.Close()
	}()

	container, err := io.ReadAll(content)
	if err != nil {
		logger.Info("Cannot fetch the published content, assuming update needed",
			"sequence", latest.Sequence,
			"error", err.Error())
		return true
	}

	payload, err := d.Packager.ExtractPayload(container)
	if err != nil {
		logger.Info("Published container has no readable payload, assuming update needed",
			"sequence", latest.Sequence,
			"error", err.Error())
		return true
	}

	currentFingerprint, err := artifact.FingerprintReader(bytes.NewReader(payload))
	if err != nil {
		logger.Info("Cannot fingerprint the published payload, assuming update needed",
			"error", err.Error())
		return true
	}

	newFingerprint, err := art.Fingerprint()
	if err != nil {
		logger.Info("Cannot fingerprint the fetched artifact, assuming update needed",
			"error", err.Error())
		return true
	}

	if newFingerprint != currentFingerprint {
		// the size delta is advisory only, the fingerprint is what
		// gates the decision
		logger.Info("Content changed, update needed",
			"sequence", latest.Sequence,
			"sizeDelta", art.Size()-int64(len(payload)))
		return true
	}

	logger.Info("Published content is current, no update needed", "sequence", latest.Sequence)
	return false
}
