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
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/layersync/layersync/pkg/registry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VersionReaper", func() {
	const family = "GeoLite2"

	var artifacts *fakeArtifactRegistry
	var consumers *fakeConsumerRegistry
	var reaper *VersionReaper

	BeforeEach(func() {
		artifacts = newFakeArtifactRegistry(family)
		for sequence := int64(1); sequence <= 5; sequence++ {
			artifacts.seed(sequence, []byte("content"))
		}
		consumers = newFakeConsumerRegistry()
		reaper = &VersionReaper{
			KeepLatest:  2,
			CallTimeout: time.Second,
		}
	})

	It("deletes the unreferenced versions beyond the retention horizon", func() {
		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(Equal([]int64{4, 5}))
		Expect(artifacts.deleted).To(ConsistOf(int64(1), int64(2), int64(3)))
	})

	It("never touches the versions within the retention horizon", func() {
		consumers.seed("lookup", registry.Ref(family, 5))

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(ContainElements(int64(4), int64(5)))
	})

	It("retains the versions still referenced by a consumer", func() {
		consumers.seed("laggard", registry.Ref(family, 2))

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(Equal([]int64{2, 4, 5}))
	})

	It("retains every candidate when the liveness check fails", func() {
		consumers.seed("opaque")
		consumers.readErrs["opaque"] = errors.New("throttled")

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(Equal([]int64{1, 2, 3, 4, 5}))
	})

	It("keeps evaluating after a deletion failure", func() {
		artifacts.deleteErr = errors.New("registry unavailable")

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(Equal([]int64{1, 2, 3, 4, 5}))
	})

	It("fails when the versions cannot be listed", func() {
		artifacts.listErr = errors.New("registry unreachable")

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).To(HaveOccurred())
	})

	It("does nothing when every version fits the retention horizon", func() {
		reaper.KeepLatest = 10

		err := reaper.Reap(context.Background(), artifacts, consumers, logr.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(artifacts.sequences()).To(Equal([]int64{1, 2, 3, 4, 5}))
	})
})
