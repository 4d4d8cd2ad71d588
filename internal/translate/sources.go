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

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

// BuildSource translates a source configuration into a Source descriptor.
// pkg is the uploaded package and must be nil for builtin connectors.
func (t *Translator) BuildSource(ctx context.Context, cfg *connector.SourceConfig, pkg io.Reader) (*v1alpha1.Source, error) {
	kind := connector.KindSource
	id := cfg.FullyQualifiedName()
	log := logf.FromContext(ctx).WithValues("source", id)

	ref, opts, err := t.validateCommon(kind, &cfg.CommonConfig, pkg)
	if err != nil {
		return nil, err
	}
	if cfg.TopicName == "" {
		return nil, configError(kind, id, "topicName", "output topic is required")
	}

	common, err := t.buildCommon(ctx, kind, &cfg.CommonConfig, ref, opts)
	if err != nil {
		return nil, err
	}

	source := &v1alpha1.Source{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.GroupVersion.String(),
			Kind:       v1alpha1.SourceKind,
		},
		ObjectMeta: t.objectMeta(kind, &cfg.CommonConfig, common.runtimeOptions),
		Spec: v1alpha1.SourceSpec{
			ClassName: common.impl.ClassName,
			Replicas:  ptr.To(common.replicas),
			Image:     common.impl.Image,
			Output: v1alpha1.OutputConf{
				Topic:              cfg.TopicName,
				TypeClassName:      common.impl.TypeClassName,
				SinkSerdeClassName: cfg.SerdeClassName,
				SinkSchemaType:     cfg.SchemaType,
			},
			SourceConfig:                 v1alpha1.NewConfig(cfg.Configs).DeepCopy(),
			Resources:                    common.resources,
			ProcessingGuarantee:          common.guarantee,
			ForwardSourceMessageProperty: ptr.Deref(cfg.ForwardSourceMessageProperty, true),
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

	if err := setSpecHash(&source.ObjectMeta, source.Spec); err != nil {
		return nil, newError(kind, id, "", err)
	}

	log.V(1).Info("built source descriptor",
		"className", source.Spec.ClassName,
		"jar", source.Spec.Java.Jar,
		"replicas", common.replicas,
	)

	return source, nil
}

// ExtractSourceConfig rebuilds the source configuration from a Source
// descriptor. The identity is not part of the descriptor and is supplied by
// the caller.
func (t *Translator) ExtractSourceConfig(tenant, namespace, name string, source *v1alpha1.Source) (*connector.SourceConfig, error) {
	if source == nil {
		return nil, errors.New("source descriptor is nil")
	}
	spec := source.Spec

	common, err := t.extractCommon(connector.KindSource, tenant, namespace, name, source.ObjectMeta,
		spec.ClassName, spec.Replicas, spec.Resources, spec.Java, spec.RuntimeFlags,
		spec.ProcessingGuarantee, spec.SourceConfig)
	if err != nil {
		return nil, err
	}

	return &connector.SourceConfig{
		CommonConfig:                 common,
		TopicName:                    spec.Output.Topic,
		SerdeClassName:               spec.Output.SinkSerdeClassName,
		SchemaType:                   spec.Output.SinkSchemaType,
		ForwardSourceMessageProperty: ptr.To(spec.ForwardSourceMessageProperty),
	}, nil
}
