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

package v1alpha1

import (
	"path"
	"strings"
)

const (
	SinkKind   = "Sink"
	SourceKind = "Source"
)

// GenPulsarClusterConfigName returns the name of the ConfigMap that holds the
// connection settings of the given cluster. Deployed connectors reference it
// by name, so the format must not change.
func GenPulsarClusterConfigName(cluster string) string {
	return cluster + "-pulsar-cluster-config"
}

// GenConnectorJarPath joins the archive file name under dir. Any directory
// part of archive is dropped.
func GenConnectorJarPath(dir, archive string) string {
	return path.Join(dir, path.Base(archive))
}

// GenObjectName lowercases name and replaces characters that are not allowed
// in an object name with a dash.
func GenObjectName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
}
