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

// Package lock implements the process-exclusivity guard serializing
// rollout runs on one host
package lock

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/layersync/layersync/pkg/log"
)

var (
	// ErrAlreadyHeld is raised when another run is holding the guard.
	// This is a deliberate skip, not a failure.
	ErrAlreadyHeld = errors.New("rollout guard already held by another process")

	// ErrUnavailable is raised when the backing guard token cannot be
	// created or locked for reasons other than contention
	ErrUnavailable = errors.New("rollout guard unavailable")
)

// Guard is a held process-exclusivity token. Release must be invoked
// on every exit path, including signal-driven interruption.
type Guard struct {
	file *os.File

	mx       sync.Mutex
	released bool
}

// Acquire attempts the non-blocking exclusive acquisition of the named
// guard, creating the backing token file if absent
func Acquire(path string) (*Guard, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) // #nosec
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyHeld
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Debug("Acquired rollout guard", "path", path)
	return &Guard{file: file}, nil
}

// Release drops the guard. It is idempotent and safe to invoke
// multiple times or after a partial failure.
func (g *Guard) Release() {
	g.mx.Lock()
	defer g.mx.Unlock()

	if g.released {
		return
	}
	g.released = true

	if err := unix.Flock(int(g.file.Fd()), unix.LOCK_UN); err != nil {
		log.Error(err, "Cannot unlock rollout guard")
	}
	if err := g.file.Close(); err != nil {
		log.Error(err, "Cannot close rollout guard token")
	}
	log.Debug("Released rollout guard")
}
