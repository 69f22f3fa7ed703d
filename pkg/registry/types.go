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

package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Version is an immutable published instance of the layer within one
// target
type Version struct {
	// Sequence is the registry-assigned sequence number, strictly
	// increasing within a target and never reused
	Sequence int64

	// ID is the opaque identifier consumers use to reference this
	// version
	ID string

	// CreatedAt is the publication timestamp
	CreatedAt time.Time

	// Fingerprint is the content fingerprint of what was published
	Fingerprint string
}

// Consumer is a downstream unit referencing at most one version of the
// layer family among possibly many unrelated references
type Consumer struct {
	// Name identifies the consumer within its target
	Name string
}

// Usage is the result of a version liveness check. The unknown state
// is a first-class value so the caller is forced to handle a failed
// check explicitly.
type Usage int

const (
	// UsageUnknown means the liveness check could not be completed
	UsageUnknown Usage = iota

	// UsageInUse means at least one consumer references the version
	UsageInUse

	// UsageNotInUse means no consumer references the version
	UsageNotInUse
)

// String implements the Stringer interface
func (u Usage) String() string {
	switch u {
	case UsageInUse:
		return "in-use"
	case UsageNotInUse:
		return "not-in-use"
	default:
		return "unknown"
	}
}

const refScheme = "layer://"

// Ref builds the opaque reference identifier of a version of a layer
// family
func Ref(family string, sequence int64) string {
	return fmt.Sprintf("%s%s/%d", refScheme, family, sequence)
}

// IsFamilyRef detects whether a reference belongs to a layer family,
// whatever version it points to
func IsFamilyRef(reference, family string) bool {
	return strings.HasPrefix(reference, refScheme+family+"/")
}

// RefSequence extracts the sequence number out of a family reference,
// or fails when the reference doesn't belong to the family
func RefSequence(reference, family string) (int64, error) {
	if !IsFamilyRef(reference, family) {
		return 0, fmt.Errorf("reference %q doesn't belong to family %q", reference, family)
	}

	sequence, err := strconv.ParseInt(strings.TrimPrefix(reference, refScheme+family+"/"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reference %q: %w", reference, err)
	}
	return sequence, nil
}
