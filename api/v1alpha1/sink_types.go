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

// SinkSpec defines the desired state of Sink
type SinkSpec struct {
	// ClassName is the implementation class of the sink.
	// +kubebuilder:validation:Required
	ClassName string `json:"className"`

	// Replicas is the number of sink instances.
	// +kubebuilder:validation:Minimum=1
	Replicas *int32 `json:"replicas"`

	// Image is the runner image of a builtin connector.
	// +optional
	Image string `json:"image,omitempty"`

	Input InputConf `json:"input"`

	// +optional
	SinkConfig *Config `json:"sinkConfig,omitempty"`

	// +optional
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`

	// +optional
	Timeout int64 `json:"timeout,omitempty"`

	// +optional
	NegativeAckRedeliveryDelayMs int64 `json:"negativeAckRedeliveryDelayMs,omitempty"`

	AutoAck *bool `json:"autoAck"`

	// +optional
	MaxMessageRetry int32 `json:"maxMessageRetry,omitempty"`

	// +optional
	ProcessingGuarantee ProcessingGuarantee `json:"processingGuarantee,omitempty"`

	// +optional
	RetainOrdering bool `json:"retainOrdering,omitempty"`

	// +optional
	DeadLetterTopic string `json:"deadLetterTopic,omitempty"`

	// +optional
	SubscriptionName string `json:"subscriptionName,omitempty"`

	// +optional
	SubscriptionPosition SubscriptionPosition `json:"subscriptionPosition,omitempty"`

	CleanupSubscription bool `json:"cleanupSubscription"`

	// +optional
	RuntimeFlags string `json:"runtimeFlags,omitempty"`

	Pulsar *PulsarMessaging `json:"pulsar"`

	Java *JavaRuntime `json:"java"`

	// +optional
	Pod PodPolicy `json:"pod,omitempty"`
}

// InputConf lists the topics a sink consumes from.
type InputConf struct {
	// +optional
	Topics []string `json:"topics,omitempty"`

	// +optional
	TopicPattern string `json:"topicPattern,omitempty"`

	// TypeClassName is the payload type the sink consumes.
	// +kubebuilder:validation:Required
	TypeClassName string `json:"typeClassName"`
}

// SinkStatus defines the observed state of Sink
type SinkStatus struct {
	// +optional
	Replicas int32 `json:"replicas,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status

// Sink is the Schema for the sinks API
type Sink struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SinkSpec   `json:"spec,omitempty"`
	Status SinkStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// SinkList contains a list of Sink
type SinkList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Sink `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Sink{}, &SinkList{})
}
