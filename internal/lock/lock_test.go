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

package lock

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rollout guard", func() {
	var guardPath string

	BeforeEach(func() {
		guardPath = filepath.Join(GinkgoT().TempDir(), "layersync.lock")
	})

	It("creates the backing token file on first acquisition", func() {
		guard, err := Acquire(guardPath)
		Expect(err).ToNot(HaveOccurred())
		defer guard.Release()

		_, err = os.Stat(guardPath)
		Expect(err).ToNot(HaveOccurred())
	})

	It("refuses a second acquisition while the guard is held", func() {
		guard, err := Acquire(guardPath)
		Expect(err).ToNot(HaveOccurred())
		defer guard.Release()

		_, err = Acquire(guardPath)
		Expect(errors.Is(err, ErrAlreadyHeld)).To(BeTrue())
	})

	It("allows re-acquisition after release", func() {
		guard, err := Acquire(guardPath)
		Expect(err).ToNot(HaveOccurred())
		guard.Release()

		reacquired, err := Acquire(guardPath)
		Expect(err).ToNot(HaveOccurred())
		reacquired.Release()
	})

	It("tolerates multiple releases", func() {
		guard, err := Acquire(guardPath)
		Expect(err).ToNot(HaveOccurred())

		guard.Release()
		guard.Release()
		guard.Release()
	})

	It("distinguishes an uncreatable token from contention", func() {
		_, err := Acquire(filepath.Join(guardPath, "nested", "impossible.lock"))
		Expect(errors.Is(err, ErrUnavailable)).To(BeTrue())
		Expect(errors.Is(err, ErrAlreadyHeld)).To(BeFalse())
	})
})
