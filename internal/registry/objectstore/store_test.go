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

package objectstore

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Version key layout", func() {
	store := NewStore(nil, "layersync-us-east-2", "GeoLite2")

	It("places containers under the family prefix", func() {
		Expect(store.versionKey(6)).To(Equal("layers/GeoLite2/v6/layer.zip"))
	})

	It("parses the sequence number back from a key", func() {
		sequence, ok := parseVersionKey("layers/GeoLite2/v6/layer.zip", store.versionPrefix())
		Expect(ok).To(BeTrue())
		Expect(sequence).To(BeEquivalentTo(6))
	})

	It("ignores keys outside the version layout", func() {
		for _, key := range []string{
			"layers/GeoLite2/readme.txt",
			"layers/GeoIP2/v6/layer.zip",
			"layers/GeoLite2/vlatest/layer.zip",
			"layers/GeoLite2/v0/layer.zip",
			"layers/GeoLite2/v-3/layer.zip",
			"functions/api.json",
		} {
			_, ok := parseVersionKey(key, store.versionPrefix())
			Expect(ok).To(BeFalse(), "key %q should not parse", key)
		}
	})
})

var _ = Describe("Consumer key layout", func() {
	It("builds and parses consumer keys", func() {
		Expect(consumerKey("geo-lookup")).To(Equal("functions/geo-lookup.json"))

		name, ok := consumerName("functions/geo-lookup.json")
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("geo-lookup"))
	})

	It("ignores keys outside the consumer layout", func() {
		for _, key := range []string{
			"functions/.json",
			"functions/nested/geo-lookup.json",
			"functions/geo-lookup.yaml",
			"layers/GeoLite2/v6/layer.zip",
		} {
			_, ok := consumerName(key)
			Expect(ok).To(BeFalse(), "key %q should not parse", key)
		}
	})
})

var _ = Describe("Object store configuration", func() {
	It("accepts a complete configuration", func() {
		config := Config{
			Endpoint:  "localhost:9000",
			AccessKey: "layersync",
			SecretKey: "layersync-secret",
		}
		Expect(config.Validate()).To(Succeed())
	})

	It("refuses an endpoint carrying a scheme", func() {
		config := Config{
			Endpoint:  "https://localhost:9000",
			AccessKey: "layersync",
			SecretKey: "layersync-secret",
		}
		Expect(config.Validate()).ToNot(Succeed())
	})

	It("refuses missing credentials", func() {
		config := Config{Endpoint: "localhost:9000"}
		Expect(config.Validate()).ToNot(Succeed())
	})
})
