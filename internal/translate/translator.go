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
	"path"
	"strings"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/internal/config"
	"github.com/danpi/function-mesh-worker-service/internal/utils"
	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
	"github.com/danpi/function-mesh-worker-service/pkg/nar"
)

// Resolver resolves connector packages to implementations.
type Resolver interface {
	Resolve(ctx context.Context, kind connector.Kind, ref nar.Reference) (nar.Implementation, error)
}

// ArchiveCatalog maps builtin archives back to catalog ids.
type ArchiveCatalog interface {
	LookupByArchive(archive string) (catalog.ConnectorDefinition, error)
}

// Translator converts connector configurations to descriptors and back.
// It keeps no state between calls and is safe for concurrent use.
type Translator struct {
	Worker   *config.WorkerContext
	Resolver Resolver
	Catalog  ArchiveCatalog
}

// NewTranslator wires a translator from the worker context. connectors may
// be nil when no builtin connectors are available.
func NewTranslator(wctx *config.WorkerContext, inspector nar.Inspector, connectors *catalog.Catalog) *Translator {
	resolver := &nar.Resolver{
		Inspector:                inspector,
		ConnectorsDirectory:      wctx.ConnectorsDirectory,
		UploadMountPath:          wctx.UploadMountPath,
		LocalConnectorsDirectory: wctx.LocalConnectorsDirectory,
	}
	t := &Translator{
		Worker:   wctx,
		Resolver: resolver,
	}

	if connectors != nil {
		resolver.Catalog = connectors
		t.Catalog = connectors
	}

	return t
}

// commonSpec holds the parts of a descriptor shared by sinks and sources.
type commonSpec struct {
	impl           nar.Implementation
	replicas       int32
	resources      corev1.ResourceRequirements
	env            []corev1.EnvVar
	pulsar         *v1alpha1.PulsarMessaging
	guarantee      v1alpha1.ProcessingGuarantee
	runtimeOptions string
}

// validateCommon checks cfg without calling any collaborator.
func (t *Translator) validateCommon(kind connector.Kind, cfg *connector.CommonConfig, pkg io.Reader) (nar.Reference, *connector.RuntimeOptions, error) {
	id := cfg.FullyQualifiedName()

	switch {
	case cfg.Tenant == "":
		return nar.Reference{}, nil, configError(kind, id, "tenant", "tenant is required")
	case cfg.Namespace == "":
		return nar.Reference{}, nil, configError(kind, id, "namespace", "namespace is required")
	case cfg.Name == "":
		return nar.Reference{}, nil, configError(kind, id, "name", "name is required")
	}

	builtinID, isBuiltin := cfg.BuiltinID()
	uploaded := pkg != nil
	switch {
	case isBuiltin && uploaded:
		return nar.Reference{}, nil, configError(kind, id, "archive",
			"both builtin connector %q and an uploaded package are set", builtinID)
	case isBuiltin && builtinID == "":
		return nar.Reference{}, nil, configError(kind, id, "archive", "builtin connector id is empty")
	case !isBuiltin && !uploaded:
		return nar.Reference{}, nil, configError(kind, id, "archive",
			"neither a builtin connector nor an uploaded package is set")
	case uploaded && cfg.Archive == "":
		return nar.Reference{}, nil, configError(kind, id, "archive", "file name of the uploaded package is required")
	}

	if cfg.Parallelism < 0 || cfg.Parallelism > math.MaxInt32 {
		return nar.Reference{}, nil, configError(kind, id, "parallelism", "parallelism %d is out of range", cfg.Parallelism)
	}
	if res := cfg.Resources; res != nil {
		if err := res.Validate(); err != nil {
			return nar.Reference{}, nil, configError(kind, id, "resources", "%v", err)
		}
	}
	if _, err := toProcessingGuarantee(cfg.ProcessingGuarantees); err != nil {
		return nar.Reference{}, nil, newError(kind, id, "processingGuarantees", err)
	}

	opts, err := connector.ParseRuntimeOptions(cfg.CustomRuntimeOptions)
	if err != nil {
		return nar.Reference{}, nil, newError(kind, id, "customRuntimeOptions", errors.Wrap(ErrConfiguration, err.Error()))
	}

	ref := nar.Reference{BuiltinID: builtinID}
	if !isBuiltin {
		ref.Archive = cfg.Archive
		ref.Package = pkg
	}

	return ref, opts, nil
}

func (t *Translator) buildCommon(ctx context.Context, kind connector.Kind, cfg *connector.CommonConfig, ref nar.Reference, opts *connector.RuntimeOptions) (*commonSpec, error) {
	id := cfg.FullyQualifiedName()

	impl, err := t.Resolver.Resolve(ctx, kind, ref)
	if err != nil {
		return nil, newError(kind, id, "archive", err)
	}
	if cfg.ClassName != "" && cfg.ClassName != impl.ClassName {
		return nil, newError(kind, id, "className", errors.Wrapf(nar.ErrImplementation,
			"class %s is not the %s implementation %s of the package", cfg.ClassName, kind, impl.ClassName))
	}

	replicas := int32(1)
	if cfg.Parallelism > 0 {
		replicas = int32(cfg.Parallelism)
	}

	guarantee, _ := toProcessingGuarantee(cfg.ProcessingGuarantees)

	return &commonSpec{
		impl:      impl,
		replicas:  replicas,
		resources: toResourceRequirements(t.Worker.Resources(cfg.Resources)),
		env: utils.EnvVarsFromMap(
			utils.MergeEnv(t.Worker.Env, t.Worker.KindEnv(kind), opts.Env),
		),
		pulsar: &v1alpha1.PulsarMessaging{
			PulsarConfig: v1alpha1.GenPulsarClusterConfigName(t.Worker.ClusterName),
		},
		guarantee:      guarantee,
		runtimeOptions: opts.Raw(),
	}, nil
}

func (t *Translator) objectMeta(kind connector.Kind, cfg *connector.CommonConfig, runtimeOptions string) metav1.ObjectMeta {
	meta := metav1.ObjectMeta{
		Name:      v1alpha1.GenObjectName(cfg.Name),
		Namespace: t.Worker.KubernetesNamespace,
		Labels: map[string]string{
			v1alpha1.ComponentKey: string(kind),
		},
		Annotations: map[string]string{},
	}

	if runtimeOptions != "" {
		meta.Annotations[v1alpha1.CustomRuntimeOptionsKey] = runtimeOptions
	}

	return meta
}

func setSpecHash(meta *metav1.ObjectMeta, spec interface{}) error {
	hash, err := utils.GetObjectHash(spec)
	if err != nil {
		return errors.Wrap(err, "failed to hash descriptor spec")
	}
	meta.Annotations[v1alpha1.LastSpecKey] = hash

	return nil
}

// extractCommon rebuilds the shared configuration fields.
func (t *Translator) extractCommon(kind connector.Kind, tenant, namespace, name string, meta metav1.ObjectMeta,
	className string, replicas *int32, resources corev1.ResourceRequirements, java *v1alpha1.JavaRuntime,
	runtimeFlags string, guarantee v1alpha1.ProcessingGuarantee, settings *v1alpha1.Config) (connector.CommonConfig, error) {
	cfg := connector.CommonConfig{
		Tenant:               tenant,
		Namespace:            namespace,
		Name:                 name,
		ClassName:            className,
		Resources:            fromResourceRequirements(resources),
		CustomRuntimeOptions: meta.Annotations[v1alpha1.CustomRuntimeOptionsKey],
		RuntimeFlags:         runtimeFlags,
		ProcessingGuarantees: fromProcessingGuarantee(guarantee),
	}
	id := cfg.FullyQualifiedName()

	if replicas != nil {
		cfg.Parallelism = int(*replicas)
	}
	if settings != nil {
		cfg.Configs = settings.DeepCopy().Data
	}

	if java == nil || java.Jar == "" {
		return cfg, configError(kind, id, "java.jar", "descriptor has no archive")
	}
	archive, err := t.extractArchive(java.Jar)
	if err != nil {
		return cfg, newError(kind, id, "java.jar", err)
	}
	cfg.Archive = archive

	return cfg, nil
}

// extractArchive maps a mounted archive back to the configuration archive.
func (t *Translator) extractArchive(jar string) (string, error) {
	connectorsDir := t.Worker.ConnectorsDirectory
	if connectorsDir == "" {
		connectorsDir = nar.DefaultConnectorsDirectory
	}

	if path.Dir(jar) != path.Clean(connectorsDir) {
		return path.Base(jar), nil
	}

	if t.Catalog == nil {
		return "", errors.Wrapf(catalog.ErrConnectorNotFound, "no connector catalog to look up archive %q", jar)
	}
	def, err := t.Catalog.LookupByArchive(jar)
	if err != nil {
		return "", err
	}

	return connector.BuiltinArchivePrefix + def.ID, nil
}

func toResourceRequirements(res connector.Resources) corev1.ResourceRequirements {
	list := corev1.ResourceList{
		corev1.ResourceCPU:    *resource.NewMilliQuantity(int64(math.Round(res.CPU*1000)), resource.DecimalSI),
		corev1.ResourceMemory: *resource.NewQuantity(res.RAM, resource.BinarySI),
	}
	if res.Disk > 0 {
		list[corev1.ResourceEphemeralStorage] = *resource.NewQuantity(res.Disk, resource.BinarySI)
	}

	return corev1.ResourceRequirements{
		Requests: list,
		Limits:   list.DeepCopy(),
	}
}

func fromResourceRequirements(req corev1.ResourceRequirements) *connector.Resources {
	list := req.Requests
	if len(list) == 0 {
		list = req.Limits
	}
	if len(list) == 0 {
		return nil
	}

	return &connector.Resources{
		CPU:  float64(list.Cpu().MilliValue()) / 1000,
		RAM:  list.Memory().Value(),
		Disk: list.StorageEphemeral().Value(),
	}
}

func toProcessingGuarantee(g connector.ProcessingGuarantees) (v1alpha1.ProcessingGuarantee, error) {
	switch connector.ProcessingGuarantees(strings.ToUpper(string(g))) {
	case "", connector.AtleastOnce:
		return v1alpha1.AtleastOnce, nil
	case connector.AtmostOnce:
		return v1alpha1.AtmostOnce, nil
	case connector.EffectivelyOnce:
		return v1alpha1.EffectivelyOnce, nil
	default:
		return "", errors.Wrapf(ErrConfiguration, "unknown processing guarantee %q", g)
	}
}

func fromProcessingGuarantee(g v1alpha1.ProcessingGuarantee) connector.ProcessingGuarantees {
	switch g {
	case v1alpha1.AtmostOnce:
		return connector.AtmostOnce
	case v1alpha1.EffectivelyOnce:
		return connector.EffectivelyOnce
	default:
		return connector.AtleastOnce
	}
}
