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

package artifact

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Artifact handles", func() {
	var payloadFile string

	BeforeEach(func() {
		payloadFile = filepath.Join(GinkgoT().TempDir(), "payload.mmdb")
		Expect(os.WriteFile(payloadFile, []byte("geoip database content"), 0o600)).To(Succeed())
	})

	It("exposes the payload size", func() {
		art, err := New(payloadFile)
		Expect(err).ToNot(HaveOccurred())
		Expect(art.Size()).To(BeEquivalentTo(22))
		Expect(art.Path()).To(Equal(payloadFile))
	})

	It("refuses a missing payload file", func() {
		_, err := New(filepath.Join(GinkgoT().TempDir(), "missing"))
		Expect(err).To(HaveOccurred())
	})

	It("computes a stable fingerprint", func() {
		art, err := New(payloadFile)
		Expect(err).ToNot(HaveOccurred())

		first, err := art.Fingerprint()
		Expect(err).ToNot(HaveOccurred())
		Expect(first).To(HaveLen(64))

		second, err := art.Fingerprint()
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("computes different fingerprints for different content", func() {
		art, err := New(payloadFile)
		Expect(err).ToNot(HaveOccurred())
		digest, err := art.Fingerprint()
		Expect(err).ToNot(HaveOccurred())

		other, err := FingerprintReader(strings.NewReader("other content"))
		Expect(err).ToNot(HaveOccurred())
		Expect(other).ToNot(Equal(digest))
	})

	It("releases the backing file only once", func() {
		art, err := New(payloadFile)
		Expect(err).ToNot(HaveOccurred())

		art.Release()
		_, err = os.Stat(payloadFile)
		Expect(os.IsNotExist(err)).To(BeTrue())

		// a second release is a no-op
		art.Release()
	})
})
