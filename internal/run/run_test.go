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

package run

import (
	"os"
	"path/filepath"
	"time"

	"github.com/layersync/layersync/internal/configuration"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Temporary file cleanup", func() {
	var config *configuration.Data

	BeforeEach(func() {
		config = &configuration.Data{TempDir: GinkgoT().TempDir()}
	})

	touch := func(name string, age time.Duration) string {
		path := filepath.Join(config.TempDir, name)
		Expect(os.WriteFile(path, []byte("leftover"), 0o600)).To(Succeed())
		stamp := time.Now().Add(-age)
		Expect(os.Chtimes(path, stamp, stamp)).To(Succeed())
		return path
	}

	It("removes aged downloads and extractions", func() {
		aged := touch("mirror_20260829T020000_GeoLite2-City.mmdb", 48*time.Hour)
		extracted := touch("extracted_123.mmdb", 48*time.Hour)

		Expect(CleanupTemp(config, 24*time.Hour)).To(Equal(2))
		Expect(aged).ToNot(BeAnExistingFile())
		Expect(extracted).ToNot(BeAnExistingFile())
	})

	It("keeps recent files and foreign names", func() {
		recent := touch("direct_20260830T020000_GeoLite2-City.mmdb", time.Minute)
		foreign := touch("unrelated.bin", 48*time.Hour)

		Expect(CleanupTemp(config, 24*time.Hour)).To(BeZero())
		Expect(recent).To(BeAnExistingFile())
		Expect(foreign).To(BeAnExistingFile())
	})
})

var _ = Describe("Coordinator assembly", func() {
	It("projects the configuration onto the rollout components", func() {
		config := &configuration.Data{
			Targets:           []string{"eu-west-1", "us-east-1"},
			ReferenceTarget:   "us-east-1",
			LayerFamily:       "GeoLite2",
			RetainVersions:    3,
			WorkerConcurrency: 2,
			CallTimeout:       30 * time.Second,
			RetryAttempts:     4,
			RetryDelay:        time.Second,
		}

		coordinator := newCoordinator(config, nil, nil, true)
		Expect(coordinator.ReferenceTargetName).To(Equal("us-east-1"))
		Expect(coordinator.Concurrency).To(Equal(2))
		Expect(coordinator.Force).To(BeTrue())
		Expect(coordinator.Pipeline.RetryAttempts).To(Equal(uint(4)))
		Expect(coordinator.Pipeline.Reaper.KeepLatest).To(Equal(3))
		Expect(coordinator.Pipeline.Migrator.Family).To(Equal("GeoLite2"))
	})
})
