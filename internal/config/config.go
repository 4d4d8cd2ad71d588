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

package config

import (
	"os"
	"path"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	"github.com/danpi/function-mesh-worker-service/pkg/connector"
	"github.com/danpi/function-mesh-worker-service/pkg/nar"
)

// WorkerContext holds the worker level settings shared by every translation.
// It is read only once loaded.
type WorkerContext struct {
	// ClusterName is the Pulsar cluster the connectors talk to.
	ClusterName string `json:"clusterName"`
	// KubernetesNamespace is where descriptors are created.
	KubernetesNamespace string `json:"kubernetesNamespace,omitempty"`

	ConnectorsDirectory      string `json:"connectorsDirectory,omitempty"`
	UploadMountPath          string `json:"uploadMountPath,omitempty"`
	LocalConnectorsDirectory string `json:"localConnectorsDirectory,omitempty"`
	ConnectorDefinitionsFile string `json:"connectorDefinitionsFile,omitempty"`
	// PackageTempDirectory is where uploaded packages are staged.
	PackageTempDirectory string `json:"packageTempDirectory,omitempty"`

	// Env applies to every connector.
	Env map[string]string `json:"env,omitempty"`
	// SinkEnv applies to sinks and overrides Env.
	SinkEnv map[string]string `json:"sinkEnv,omitempty"`
	// SourceEnv applies to sources and overrides Env.
	SourceEnv map[string]string `json:"sourceEnv,omitempty"`

	DefaultResources *connector.Resources `json:"defaultResources,omitempty"`
}

// Load parses the YAML worker configuration and applies defaults.
func Load(data []byte) (*WorkerContext, error) {
	wctx := &WorkerContext{}
	if err := yaml.UnmarshalStrict(data, wctx); err != nil {
		return nil, errors.Wrap(err, "failed to parse worker config")
	}

	wctx.Default()
	if err := wctx.Validate(); err != nil {
		return nil, err
	}

	return wctx, nil
}

// LoadFile reads the worker configuration from path.
func LoadFile(path string) (*WorkerContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read worker config from %s", path)
	}

	return Load(data)
}

// Default fills unset fields.
func (w *WorkerContext) Default() {
	if w.KubernetesNamespace == "" {
		w.KubernetesNamespace = "default"
	}
	if w.ConnectorsDirectory == "" {
		w.ConnectorsDirectory = nar.DefaultConnectorsDirectory
	}
	if w.UploadMountPath == "" {
		w.UploadMountPath = nar.DefaultUploadMountPath
	}
	if w.DefaultResources == nil {
		res := connector.DefaultResources()
		w.DefaultResources = &res
	}
}

// Validate checks the settings the descriptors depend on.
func (w *WorkerContext) Validate() error {
	if w.ClusterName == "" {
		return errors.New("worker config: clusterName is required")
	}
	if errs := validation.IsDNS1123Subdomain(w.ClusterName); len(errs) > 0 {
		return errors.Errorf("worker config: clusterName %q is invalid: %v", w.ClusterName, errs)
	}
	if errs := validation.IsDNS1123Label(w.KubernetesNamespace); len(errs) > 0 {
		return errors.Errorf("worker config: kubernetesNamespace %q is invalid: %v", w.KubernetesNamespace, errs)
	}
	if path.Clean(w.UploadMountPath) == path.Clean(w.ConnectorsDirectory) {
		return errors.Errorf("worker config: uploadMountPath and connectorsDirectory are both %q", w.UploadMountPath)
	}
	if res := w.DefaultResources; res != nil {
		if err := res.Validate(); err != nil {
			return errors.Wrap(err, "worker config: defaultResources")
		}
	}

	return nil
}

// KindEnv returns the env tier of the connector kind.
func (w *WorkerContext) KindEnv(kind connector.Kind) map[string]string {
	if kind == connector.KindSource {
		return w.SourceEnv
	}

	return w.SinkEnv
}

// Resources returns res, or the worker defaults when res is nil.
func (w *WorkerContext) Resources(res *connector.Resources) connector.Resources {
	switch {
	case res != nil:
		return *res
	case w.DefaultResources != nil:
		return *w.DefaultResources
	default:
		return connector.DefaultResources()
	}
}
