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

package translate

import (
	"context"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

// BuildSink translates a sink configuration into a Sink descriptor. pkg is
// the uploaded package and must be nil for builtin connectors.
func (t *Translator) BuildSink(ctx context.Context, cfg *connector.SinkConfig, pkg io.Reader) (*v1alpha1.Sink, error) {
	kind := connector.KindSink
	id := cfg.FullyQualifiedName()
	log := logf.FromContext(ctx).WithValues("sink", id)

	ref, opts, err := t.validateCommon(kind, &cfg.CommonConfig, pkg)
	if err != nil {
		return nil, err
	}
	position, err := toSubscriptionPosition(cfg.SourceSubscriptionPosition)
	if err != nil {
		return nil, newError(kind, id, "sourceSubscriptionPosition", err)
	}
	switch {
	case len(cfg.Inputs) == 0 && cfg.TopicsPattern == "":
		return nil, configError(kind, id, "inputs", "at least one input topic or a topics pattern is required")
	case cfg.MaxMessageRetries < 0 || cfg.MaxMessageRetries > math.MaxInt32:
		return nil, configError(kind, id, "maxMessageRetries", "maxMessageRetries %d is out of range", cfg.MaxMessageRetries)
	case cfg.TimeoutMs != nil && *cfg.TimeoutMs < 0:
		return nil, configError(kind, id, "timeoutMs", "timeoutMs %d is negative", *cfg.TimeoutMs)
	case cfg.NegativeAckRedeliveryDelayMs != nil && *cfg.NegativeAckRedeliveryDelayMs < 0:
		return nil, configError(kind, id, "negativeAckRedeliveryDelayMs",
			"negativeAckRedeliveryDelayMs %d is negative", *cfg.NegativeAckRedeliveryDelayMs)
	}

	common, err := t.buildCommon(ctx, kind, &cfg.CommonConfig, ref, opts)
	if err != nil {
		return nil, err
	}

	sink := &v1alpha1.Sink{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.GroupVersion.String(),
			Kind:       v1alpha1.SinkKind,
		},
		ObjectMeta: t.objectMeta(kind, &cfg.CommonConfig, common.runtimeOptions),
		Spec: v1alpha1.SinkSpec{
			ClassName: common.impl.ClassName,
			Replicas:  ptr.To(common.replicas),
			Image:     common.impl.Image,
			Input: v1alpha1.InputConf{
				Topics:        append([]string(nil), cfg.Inputs...),
				TopicPattern:  cfg.TopicsPattern,
				TypeClassName: common.impl.TypeClassName,
			},
			SinkConfig:                   v1alpha1.NewConfig(cfg.Configs).DeepCopy(),
			Resources:                    common.resources,
			Timeout:                      ptr.Deref(cfg.TimeoutMs, 0),
			NegativeAckRedeliveryDelayMs: ptr.Deref(cfg.NegativeAckRedeliveryDelayMs, 0),
			AutoAck:                      ptr.To(ptr.Deref(cfg.AutoAck, true)),
			MaxMessageRetry:              int32(cfg.MaxMessageRetries),
			ProcessingGuarantee:          common.guarantee,
			RetainOrdering:               cfg.RetainOrdering,
			DeadLetterTopic:              cfg.DeadLetterTopic,
			SubscriptionName:             cfg.SourceSubscriptionName,
			SubscriptionPosition:         position,
			CleanupSubscription:          ptr.Deref(cfg.CleanupSubscription, true),
			RuntimeFlags:                 cfg.RuntimeFlags,
			Pulsar:                       common.pulsar,
			Java: &v1alpha1.JavaRuntime{
				Jar: common.impl.ArchivePath,
			},
			Pod: v1alpha1.PodPolicy{
				Env: common.env,
			},
		},
	}

	if err := setSpecHash(&sink.ObjectMeta, sink.Spec); err != nil {
		return nil, newError(kind, id, "", err)
	}

	log.V(1).Info("built sink descriptor",
		"className", sink.Spec.ClassName,
		"jar", sink.Spec.Java.Jar,
		"replicas", common.replicas,
	)

	return sink, nil
}

// ExtractSinkConfig rebuilds the sink configuration from a Sink descriptor.
// The identity is not part of the descriptor and is supplied by the caller.
func (t *Translator) ExtractSinkConfig(tenant, namespace, name string, sink *v1alpha1.Sink) (*connector.SinkConfig, error) {
	if sink == nil {
		return nil, errors.New("sink descriptor is nil")
	}
	spec := sink.Spec

	common, err := t.extractCommon(connector.KindSink, tenant, namespace, name, sink.ObjectMeta,
		spec.ClassName, spec.Replicas, spec.Resources, spec.Java, spec.RuntimeFlags,
		spec.ProcessingGuarantee, spec.SinkConfig)
	if err != nil {
		return nil, err
	}

	cfg := &connector.SinkConfig{
		CommonConfig:               common,
		Inputs:                     append([]string(nil), spec.Input.Topics...),
		TopicsPattern:              spec.Input.TopicPattern,
		AutoAck:                    ptr.To(ptr.Deref(spec.AutoAck, true)),
		CleanupSubscription:        ptr.To(spec.CleanupSubscription),
		SourceSubscriptionName:     spec.SubscriptionName,
		SourceSubscriptionPosition: fromSubscriptionPosition(spec.SubscriptionPosition),
		MaxMessageRetries:          int(spec.MaxMessageRetry),
		DeadLetterTopic:            spec.DeadLetterTopic,
		RetainOrdering:             spec.RetainOrdering,
	}
	if spec.Timeout > 0 {
		cfg.TimeoutMs = ptr.To(spec.Timeout)
	}
	if spec.NegativeAckRedeliveryDelayMs > 0 {
		cfg.NegativeAckRedeliveryDelayMs = ptr.To(spec.NegativeAckRedeliveryDelayMs)
	}

	return cfg, nil
}

func toSubscriptionPosition(p connector.SubscriptionInitialPosition) (v1alpha1.SubscriptionPosition, error) {
	switch strings.ToLower(string(p)) {
	case "", string(v1alpha1.SubscriptionPositionEarliest):
		return v1alpha1.SubscriptionPositionEarliest, nil
	case string(v1alpha1.SubscriptionPositionLatest):
		return v1alpha1.SubscriptionPositionLatest, nil
	default:
		return "", errors.Wrapf(ErrConfiguration, "unknown subscription position %q", p)
	}
}

func fromSubscriptionPosition(p v1alpha1.SubscriptionPosition) connector.SubscriptionInitialPosition {
	if p == v1alpha1.SubscriptionPositionLatest {
		return connector.Latest
	}

	return connector.Earliest
}
