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
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/layersync/layersync/pkg/artifact"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func makeArtifact(content []byte) *artifact.Artifact {
	path := filepath.Join(GinkgoT().TempDir(), "payload.mmdb")
	Expect(os.WriteFile(path, content, 0o600)).To(Succeed())

	art, err := artifact.New(path)
	Expect(err).ToNot(HaveOccurred())
	return art
}

type brokenPackager struct{}

func (brokenPackager) ExtractPayload(_ []byte) ([]byte, error) {
	return nil, errors.New("not a container")
}

var _ = Describe("ChangeDetector", func() {
	var artifacts *fakeArtifactRegistry
	var target Target
	var detector *ChangeDetector

	payload := []byte("published payload bytes")

	BeforeEach(func() {
		artifacts = newFakeArtifactRegistry("GeoLite2")
		target = Target{
			Name:      "eu-west-1",
			Artifacts: artifacts,
			Consumers: newFakeConsumerRegistry(),
		}
		detector = &ChangeDetector{
			Packager:    passthroughPackager{},
			CallTimeout: time.Second,
		}
	})

	It("detects no change when the published content is identical", func() {
		artifacts.seed(1, payload)
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeFalse())
	})

	It("detects a change when the content differs", func() {
		artifacts.seed(1, payload)
		Expect(detector.NeedsUpdate(makeArtifact([]byte("fresher payload")), target)).To(BeTrue())
	})

	It("compares against the most recent version only", func() {
		artifacts.seed(1, []byte("ancient payload"))
		artifacts.seed(2, payload)
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeFalse())
	})

	It("requires an update when nothing is published yet", func() {
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeTrue())
	})

	It("requires an update when the registry cannot be listed", func() {
		artifacts.seed(1, payload)
		artifacts.listErr = errors.New("registry unreachable")
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeTrue())
	})

	It("requires an update when the published content is missing", func() {
		artifacts.seed(1, payload)
		delete(artifacts.contents, 1)
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeTrue())
	})

	It("requires an update when the published container is unreadable", func() {
		artifacts.seed(1, payload)
		detector.Packager = brokenPackager{}
		Expect(detector.NeedsUpdate(makeArtifact(payload), target)).To(BeTrue())
	})
})
