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

package connector

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Kind tells sinks and sources apart.
type Kind string

const (
	KindSink   Kind = "sink"
	KindSource Kind = "source"
)

// BuiltinArchivePrefix marks an archive reference that names a catalog
// connector instead of an uploaded package.
const BuiltinArchivePrefix = "builtin://"

type ProcessingGuarantees string

const (
	AtleastOnce     ProcessingGuarantees = "ATLEAST_ONCE"
	AtmostOnce      ProcessingGuarantees = "ATMOST_ONCE"
	EffectivelyOnce ProcessingGuarantees = "EFFECTIVELY_ONCE"
)

type SubscriptionInitialPosition string

const (
	Earliest SubscriptionInitialPosition = "Earliest"
	Latest   SubscriptionInitialPosition = "Latest"
)

// Resources are the per instance resource requests. RAM and Disk are bytes.
type Resources struct {
	CPU  float64 `json:"cpu"`
	RAM  int64   `json:"ram"`
	Disk int64   `json:"disk"`
}

// DefaultResources are used when a configuration does not request any.
func DefaultResources() Resources {
	return Resources{
		CPU:  1,
		RAM:  1 << 30,
		Disk: 10 << 30,
	}
}

// Validate checks that the resources are positive and that CPU is a whole
// number of millicores, the precision descriptors carry.
func (r Resources) Validate() error {
	switch {
	case math.IsNaN(r.CPU) || r.CPU < 0.001 || r.CPU > math.MaxInt64/1000 || r.RAM <= 0 || r.Disk < 0:
		return errors.Errorf("resources %+v must be positive", r)
	case math.Abs(r.CPU*1000-math.Round(r.CPU*1000)) > 1e-9:
		return errors.Errorf("cpu %v is not a whole number of millicores", r.CPU)
	}

	return nil
}

// CommonConfig holds the fields shared by sinks and sources.
type CommonConfig struct {
	Tenant    string `json:"tenant,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`
	ClassName string `json:"className,omitempty"`

	// Archive is either BuiltinArchivePrefix followed by a catalog id, or the
	// file name of an uploaded package.
	Archive string `json:"archive,omitempty"`

	Parallelism          int                    `json:"parallelism,omitempty"`
	Resources            *Resources             `json:"resources,omitempty"`
	Configs              map[string]interface{} `json:"configs,omitempty"`
	CustomRuntimeOptions string                 `json:"customRuntimeOptions,omitempty"`
	RuntimeFlags         string                 `json:"runtimeFlags,omitempty"`
	ProcessingGuarantees ProcessingGuarantees   `json:"processingGuarantees,omitempty"`
}

// BuiltinID returns the catalog id when the archive references a builtin
// connector.
func (c *CommonConfig) BuiltinID() (string, bool) {
	if !strings.HasPrefix(c.Archive, BuiltinArchivePrefix) {
		return "", false
	}

	return strings.TrimPrefix(c.Archive, BuiltinArchivePrefix), true
}

// FullyQualifiedName is tenant/namespace/name.
func (c *CommonConfig) FullyQualifiedName() string {
	return c.Tenant + "/" + c.Namespace + "/" + c.Name
}

type SinkConfig struct {
	CommonConfig

	Inputs                       []string                    `json:"inputs,omitempty"`
	TopicsPattern                string                      `json:"topicsPattern,omitempty"`
	AutoAck                      *bool                       `json:"autoAck,omitempty"`
	CleanupSubscription          *bool                       `json:"cleanupSubscription,omitempty"`
	SourceSubscriptionName       string                      `json:"sourceSubscriptionName,omitempty"`
	SourceSubscriptionPosition   SubscriptionInitialPosition `json:"sourceSubscriptionPosition,omitempty"`
	MaxMessageRetries            int                         `json:"maxMessageRetries,omitempty"`
	DeadLetterTopic              string                      `json:"deadLetterTopic,omitempty"`
	RetainOrdering               bool                        `json:"retainOrdering,omitempty"`
	TimeoutMs                    *int64                      `json:"timeoutMs,omitempty"`
	NegativeAckRedeliveryDelayMs *int64                      `json:"negativeAckRedeliveryDelayMs,omitempty"`
}

type SourceConfig struct {
	CommonConfig

	TopicName                    string `json:"topicName,omitempty"`
	SerdeClassName               string `json:"serdeClassName,omitempty"`
	SchemaType                   string `json:"schemaType,omitempty"`
	ForwardSourceMessageProperty *bool  `json:"forwardSourceMessageProperty,omitempty"`
}
