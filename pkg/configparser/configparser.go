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

// Package configparser contains the code required to fill a Go structure
// from environment variables and from an optional map of settings which
// overrides the environment
package configparser

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/layersync/layersync/pkg/log"
)

// ReadSettings loads the content of the target structure, whose fields
// are annotated with `env` tags, from the process environment and from
// the settings map. A value found in the settings map takes precedence
// over the one in the environment. Fields whose value is missing or
// malformed are set to the value found in the defaults structure.
//
// The target and defaults arguments must be pointers to the same
// structure type.
func ReadSettings(target interface{}, defaults interface{}, settings map[string]string) {
	ReadSettingsFrom(target, defaults, settings, OsEnvironment{})
}

// ReadSettingsFrom is ReadSettings with an explicit environment source,
// used in the unit tests
func ReadSettingsFrom(
	target interface{},
	defaults interface{},
	settings map[string]string,
	env EnvironmentSource,
) {
	count := reflect.TypeOf(target).Elem().NumField()
	for index := 0; index < count; index++ {
		field := reflect.TypeOf(target).Elem().Field(index)
		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := env.Getenv(envName)
		if mapValue, ok := settings[envName]; ok {
			value = mapValue
		}

		targetField := reflect.ValueOf(target).Elem().Field(index)
		defaultField := reflect.ValueOf(defaults).Elem().Field(index)
		if value == "" {
			targetField.Set(defaultField)
			continue
		}

		if !setField(targetField, value) {
			log.Info("Skipping invalid configuration value, using default",
				"name", envName,
				"value", value)
			targetField.Set(defaultField)
		}
	}
}

// setField fills a structure field from its string representation,
// returning false when the representation cannot be parsed
func setField(field reflect.Value, value string) bool {
	switch field.Interface().(type) {
	case string:
		field.SetString(value)

	case []string:
		field.Set(reflect.ValueOf(splitAndTrim(value)))

	case bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		field.SetBool(parsed)

	case time.Duration:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return false
		}
		field.SetInt(int64(parsed))

	case int, int64:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		field.SetInt(parsed)

	default:
		return false
	}

	return true
}

// splitAndTrim slices a comma-separated string into the list of its
// trimmed items
func splitAndTrim(commaSeparatedList string) []string {
	list := strings.Split(commaSeparatedList, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	return list
}
