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

package log

import (
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The following are the supported values of the log-level flag
const (
	ErrorLevelString   = "error"
	WarningLevelString = "warning"
	InfoLevelString    = "info"
	DebugLevelString   = "debug"
	TraceLevelString   = "trace"
	DefaultLevelString = InfoLevelString
)

// The zap levels corresponding to each log-level string
const (
	ErrorLevel   = zapcore.ErrorLevel
	WarningLevel = zapcore.WarnLevel
	InfoLevel    = zapcore.InfoLevel
	DebugLevel   = zapcore.DebugLevel
	TraceLevel   = zapcore.Level(-2)
	DefaultLevel = InfoLevel
)

// Flags contains the set of values necessary for configuring
// the logging subsystem
type Flags struct{}

var (
	logLevel       string
	logDestination string
)

// AddFlags binds the logging configuration flags to a given flagset
func (l *Flags) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&logLevel, "log-level", DefaultLevelString,
		"the desired log level, one of error, warning, info, debug and trace")
	flags.StringVar(&logDestination, "log-destination", "",
		"where the log stream will be written")
}

// ConfigureLogging configures the logging subsystem honoring the
// flags passed from the user
func (l *Flags) ConfigureLogging() {
	logger := zapr.NewLogger(buildZapLogger())

	switch logLevel {
	case ErrorLevelString,
		WarningLevelString,
		InfoLevelString,
		DebugLevelString,
		TraceLevelString:
		break
	default:
		logger.Info("Invalid log level, defaulting",
			"level", logLevel,
			"default", DefaultLevelString)
	}

	SetLogger(logger)
}

func buildZapLogger() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(getLogLevelString(l))
	}

	sink := zapcore.Lock(os.Stderr)
	if logDestination != "" {
		logStream, err := os.OpenFile(logDestination, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666) //#nosec
		if err != nil {
			panic(fmt.Sprintf("Cannot open log destination %v: %v", logDestination, err))
		}
		sink = zapcore.Lock(logStream)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		sink,
		zap.NewAtomicLevelAt(getLogLevel(logLevel)))
	return zap.New(core)
}

func getLogLevel(l string) zapcore.Level {
	switch l {
	case ErrorLevelString:
		return ErrorLevel
	case WarningLevelString:
		return WarningLevel
	case InfoLevelString:
		return InfoLevel
	case DebugLevelString:
		return DebugLevel
	case TraceLevelString:
		return TraceLevel
	default:
		return DefaultLevel
	}
}

func getLogLevelString(l zapcore.Level) string {
	switch l {
	case ErrorLevel:
		return ErrorLevelString
	case WarningLevel:
		return WarningLevelString
	case InfoLevel:
		return InfoLevelString
	case DebugLevel:
		return DebugLevelString
	case TraceLevel:
		return TraceLevelString
	default:
		return DefaultLevelString
	}
}
