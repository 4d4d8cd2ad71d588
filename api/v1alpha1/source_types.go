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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// SourceSpec defines the desired state of Source
type SourceSpec struct {
	// ClassName is the implementation class of the source.
	// +kubebuilder:validation:Required
	ClassName string `json:"className"`

	// Replicas is the number of source instances.
	// +kubebuilder:validation:Minimum=1
	Replicas *int32 `json:"replicas"`

	// Image is the runner image of a builtin connector.
	// +optional
	Image string `json:"image,omitempty"`

	Output OutputConf `json:"output"`

	// +optional
	SourceConfig *Config `json:"sourceConfig,omitempty"`

	// +optional
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`

	// +optional
	ProcessingGuarantee ProcessingGuarantee `json:"processingGuarantee,omitempty"`

	ForwardSourceMessageProperty bool `json:"forwardSourceMessageProperty"`

	// +optional
	RuntimeFlags string `json:"runtimeFlags,omitempty"`

	Pulsar *PulsarMessaging `json:"pulsar"`

	Java *JavaRuntime `json:"java"`

	// +optional
	Pod PodPolicy `json:"pod,omitempty"`
}

// OutputConf describes the topic a source produces to.
type OutputConf struct {
	// +kubebuilder:validation:Required
	Topic string `json:"topic"`

	// TypeClassName is the payload type the source produces.
	// +kubebuilder:validation:Required
	TypeClassName string `json:"typeClassName"`

	// +optional
	SinkSerdeClassName string `json:"sinkSerdeClassName,omitempty"`

	// +optional
	SinkSchemaType string `json:"sinkSchemaType,omitempty"`
}

// SourceStatus defines the observed state of Source
type SourceStatus struct {
	// +optional
	Replicas int32 `json:"replicas,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status

// Source is the Schema for the sources API
type Source struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SourceSpec   `json:"spec,omitempty"`
	Status SourceStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// SourceList contains a list of Source
type SourceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Source `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Source{}, &SourceList{})
}
