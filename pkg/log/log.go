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

// Package log contains the logging subsystem of layersync
package log

import (
	"github.com/go-logr/logr"
)

// Log is the logger that will be used by every package which
// doesn't receive a more specific one
var Log = logr.Discard()

// SetLogger will set the backing logr implementation for layersync
func SetLogger(logger logr.Logger) {
	Log = logger
}

// Error logs an error message with the default logger
func Error(err error, msg string, keysAndValues ...interface{}) {
	Log.Error(err, msg, keysAndValues...)
}

// Info logs an informational message with the default logger
func Info(msg string, keysAndValues ...interface{}) {
	Log.Info(msg, keysAndValues...)
}

// Debug logs a debug message with the default logger
func Debug(msg string, keysAndValues ...interface{}) {
	Log.V(1).Info(msg, keysAndValues...)
}

// Trace logs a trace message with the default logger
func Trace(msg string, keysAndValues ...interface{}) {
	Log.V(2).Info(msg, keysAndValues...)
}
