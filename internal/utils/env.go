/*
Copyright 2023.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"sort"

	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
)

// MergeEnv merges the environment tiers. Later tiers win: global < kind <
// instance. No tier removes a key set by a lower one.
func MergeEnv(global, kind, instance map[string]string) map[string]string {
	return lo.Assign(global, kind, instance)
}

// EnvVarsFromMap renders env as a list ordered by name.
func EnvVarsFromMap(env map[string]string) []corev1.EnvVar {
	if len(env) == 0 {
		return nil
	}

	names := lo.Keys(env)
	sort.Strings(names)

	return lo.Map(names, func(name string, _ int) corev1.EnvVar {
		return corev1.EnvVar{Name: name, Value: env[name]}
	})
}

// EnvVarsToMap projects vars back to a map. For duplicated names the last
// value wins.
func EnvVarsToMap(vars []corev1.EnvVar) map[string]string {
	return lo.SliceToMap(vars, func(v corev1.EnvVar) (string, string) {
		return v.Name, v.Value
	})
}
