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

package deployer

import (
	"context"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
)

// Deployer stores descriptors in the cluster.
type Deployer struct {
	client.Client
	// Recorder is optional.
	Recorder record.EventRecorder
}

func New(c client.Client, recorder record.EventRecorder) *Deployer {
	return &Deployer{
		Client:   c,
		Recorder: recorder,
	}
}

// Apply creates the Sink or Source, or updates the stored one when the spec
// hash annotation differs. Labels and annotations are merged into the stored
// object.
func (d *Deployer) Apply(ctx context.Context, obj client.Object) (controllerutil.OperationResult, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return controllerutil.OperationResultNone, err
	}
	logger := logf.FromContext(ctx).WithValues("namespace", obj.GetNamespace(), "name", obj.GetName(), "kind", kind)

	existing, ok := obj.DeepCopyObject().(client.Object)
	if !ok {
		return controllerutil.OperationResultNone, errors.Errorf("%s %s is not a client object", kind, obj.GetName())
	}
	err = d.Get(ctx, client.ObjectKeyFromObject(obj), existing)
	if err != nil {
		if !k8sErrors.IsNotFound(err) {
			return controllerutil.OperationResultNone, errors.Wrapf(err, "failed to get %s %s", kind, obj.GetName())
		}

		logger.Info("Creating descriptor")
		if err = d.Create(ctx, obj); err != nil {
			return controllerutil.OperationResultNone, errors.Wrapf(err, "failed to create %s %s", kind, obj.GetName())
		}
		d.event(obj, "Created", kind)
		return controllerutil.OperationResultCreated, nil
	}

	if !isHashChanged(existing, obj) {
		logger.V(1).Info("Descriptor is up to date")
		return controllerutil.OperationResultNone, nil
	}

	existing.SetLabels(mergeMap(existing.GetLabels(), obj.GetLabels()))
	existing.SetAnnotations(mergeMap(existing.GetAnnotations(), obj.GetAnnotations()))
	copySpec(existing, obj)

	logger.Info("Updating descriptor")
	if err = d.Update(ctx, existing); err != nil {
		return controllerutil.OperationResultNone, errors.Wrapf(err, "failed to update %s %s", kind, obj.GetName())
	}
	d.event(existing, "Updated", kind)

	return controllerutil.OperationResultUpdated, nil
}

func (d *Deployer) GetSink(ctx context.Context, namespace, name string) (*v1alpha1.Sink, error) {
	sink := &v1alpha1.Sink{}
	if err := d.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, sink); err != nil {
		return nil, errors.Wrapf(err, "failed to get sink %s/%s", namespace, name)
	}

	return sink, nil
}

func (d *Deployer) GetSource(ctx context.Context, namespace, name string) (*v1alpha1.Source, error) {
	source := &v1alpha1.Source{}
	if err := d.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, source); err != nil {
		return nil, errors.Wrapf(err, "failed to get source %s/%s", namespace, name)
	}

	return source, nil
}

func (d *Deployer) event(obj client.Object, reason, kind string) {
	if d.Recorder == nil {
		return
	}
	d.Recorder.Eventf(obj, corev1.EventTypeNormal, reason, "%s %s %s", reason, kind, obj.GetName())
}

func kindOf(obj client.Object) (string, error) {
	switch obj.(type) {
	case *v1alpha1.Sink:
		return v1alpha1.SinkKind, nil
	case *v1alpha1.Source:
		return v1alpha1.SourceKind, nil
	default:
		return "", errors.Errorf("unsupported descriptor type %T", obj)
	}
}

// copySpec copies the spec of desired into target. Both hold the same type.
func copySpec(target, desired client.Object) {
	switch t := target.(type) {
	case *v1alpha1.Sink:
		t.Spec = *desired.(*v1alpha1.Sink).Spec.DeepCopy()
	case *v1alpha1.Source:
		t.Spec = *desired.(*v1alpha1.Source).Spec.DeepCopy()
	}
}

func isHashChanged(obj1, obj2 client.Object) bool {
	return obj1.GetAnnotations()[v1alpha1.LastSpecKey] != obj2.GetAnnotations()[v1alpha1.LastSpecKey]
}

// mergeMap merges desired into target and returns target.
func mergeMap(target, desired map[string]string) map[string]string {
	if target == nil {
		target = make(map[string]string, len(desired))
	}
	for key, value := range desired {
		target[key] = value
	}
	return target
}
