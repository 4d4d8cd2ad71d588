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
	"encoding/json"

	corev1 "k8s.io/api/core/v1"
)

// ProcessingGuarantee is the delivery semantic the connector instances honour.
// +kubebuilder:validation:Enum=atleast_once;atmost_once;effectively_once
type ProcessingGuarantee string

const (
	AtleastOnce     ProcessingGuarantee = "atleast_once"
	AtmostOnce      ProcessingGuarantee = "atmost_once"
	EffectivelyOnce ProcessingGuarantee = "effectively_once"
)

// SubscriptionPosition is the initial position of a sink subscription.
// +kubebuilder:validation:Enum=earliest;latest
type SubscriptionPosition string

const (
	SubscriptionPositionEarliest SubscriptionPosition = "earliest"
	SubscriptionPositionLatest   SubscriptionPosition = "latest"
)

// Config holds the connector specific settings. The content is opaque to the
// operator and passed to the connector runtime unchanged.
// +kubebuilder:validation:Type=object
// +kubebuilder:pruning:PreserveUnknownFields
type Config struct {
	Data map[string]interface{} `json:"-"`
}

// NewConfig wraps the settings map. A nil map yields a nil Config.
func NewConfig(data map[string]interface{}) *Config {
	if data == nil {
		return nil
	}

	return &Config{Data: data}
}

func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Data)
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	c.Data = out

	return nil
}

// PulsarMessaging points the connector at the cluster it talks to.
type PulsarMessaging struct {
	// PulsarConfig is the name of the ConfigMap holding the cluster
	// connection settings.
	// +kubebuilder:validation:Required
	PulsarConfig string `json:"pulsarConfig"`
}

// JavaRuntime describes where the connector package is mounted.
type JavaRuntime struct {
	// Jar is the archive path inside the runtime container.
	// +kubebuilder:validation:Required
	Jar string `json:"jar"`

	// +optional
	JarLocation string `json:"jarLocation,omitempty"`
}

// PodPolicy contains the pod level settings of the connector workload.
type PodPolicy struct {
	// Env is the environment of the connector container. It is recomputed on
	// every translation and never read back as configuration.
	// +optional
	Env []corev1.EnvVar `json:"env,omitempty"`
}

// DeepCopyInto copies the receiver into out. The settings map is copied
// recursively; scalar values are shared.
func (in *Config) DeepCopyInto(out *Config) {
	*out = *in
	if in.Data != nil {
		out.Data = deepCopyMap(in.Data)
	}
}

// DeepCopy copies the receiver, creating a new Config.
func (in *Config) DeepCopy() *Config {
	if in == nil {
		return nil
	}
	out := new(Config)
	in.DeepCopyInto(out)
	return out
}

func deepCopyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for key, val := range in {
		out[key] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(in interface{}) interface{} {
	switch v := in.(type) {
	case map[string]interface{}:
		return deepCopyMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = deepCopyValue(v[i])
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}
