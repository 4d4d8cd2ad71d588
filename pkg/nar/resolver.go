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

package nar

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

const (
	DefaultConnectorsDirectory = "connectors"
	DefaultUploadMountPath     = "/pulsar"
)

// Catalog looks up builtin connector definitions.
type Catalog interface {
	Lookup(id string) (catalog.ConnectorDefinition, error)
}

// Reference points at the package of a connector: either a builtin id, or
// the file name and content of an uploaded package.
type Reference struct {
	BuiltinID string
	Archive   string
	Package   io.Reader
}

// Resolver resolves references to implementations.
type Resolver struct {
	Inspector Inspector
	Catalog   Catalog

	// ConnectorsDirectory is where builtin packages are mounted.
	ConnectorsDirectory string
	// UploadMountPath is where uploaded packages are mounted.
	UploadMountPath string
	// LocalConnectorsDirectory holds local copies of the builtin packages.
	// It is only read for definitions that do not declare their classes.
	LocalConnectorsDirectory string
}

// Resolve returns the implementation of the referenced package for kind.
func (r *Resolver) Resolve(ctx context.Context, kind connector.Kind, ref Reference) (Implementation, error) {
	if ref.BuiltinID != "" {
		return r.resolveBuiltin(ctx, kind, ref.BuiltinID)
	}

	return r.resolveUploaded(ctx, kind, ref)
}

func (r *Resolver) resolveUploaded(ctx context.Context, kind connector.Kind, ref Reference) (Implementation, error) {
	if ref.Package == nil {
		return Implementation{}, errors.Wrapf(ErrPackage, "no package uploaded for archive %q", ref.Archive)
	}
	if r.Inspector == nil {
		return Implementation{}, errors.New("no package inspector configured")
	}

	impl, err := r.Inspector.Inspect(ctx, kind, ref.Package)
	if err != nil {
		return Implementation{}, errors.WithMessagef(err, "inspect uploaded package %q", ref.Archive)
	}
	impl.ArchivePath = v1alpha1.GenConnectorJarPath(withDefault(r.UploadMountPath, DefaultUploadMountPath), ref.Archive)

	return impl, nil
}

func (r *Resolver) resolveBuiltin(ctx context.Context, kind connector.Kind, id string) (Implementation, error) {
	if r.Catalog == nil {
		return Implementation{}, errors.Wrapf(catalog.ErrConnectorNotFound, "no connector catalog to look up %q", id)
	}

	def, err := r.Catalog.Lookup(id)
	if err != nil {
		return Implementation{}, err
	}

	impl := Implementation{
		ArchivePath: v1alpha1.GenConnectorJarPath(withDefault(r.ConnectorsDirectory, DefaultConnectorsDirectory), def.Jar),
		Image:       def.Image(),
	}
	if kind == connector.KindSource {
		impl.ClassName, impl.TypeClassName = def.SourceClass, def.SourceTypeClassName
	} else {
		impl.ClassName, impl.TypeClassName = def.SinkClass, def.SinkTypeClassName
	}

	if impl.ClassName != "" && impl.TypeClassName != "" {
		return impl, nil
	}

	inspected, err := r.inspectLocal(ctx, kind, def)
	if err != nil {
		return Implementation{}, errors.WithMessagef(err, "resolve builtin connector %q", id)
	}
	if impl.ClassName != "" && impl.ClassName != inspected.ClassName {
		return Implementation{}, errors.Wrapf(ErrImplementation,
			"builtin connector %q declares %s %s but its package implements %s",
			id, kind, impl.ClassName, inspected.ClassName)
	}
	impl.ClassName, impl.TypeClassName = inspected.ClassName, inspected.TypeClassName

	return impl, nil
}

func (r *Resolver) inspectLocal(ctx context.Context, kind connector.Kind, def catalog.ConnectorDefinition) (Implementation, error) {
	if r.LocalConnectorsDirectory == "" || r.Inspector == nil {
		return Implementation{}, errors.Wrapf(ErrImplementation, "connector definition does not declare a %s class", kind)
	}

	localPath := filepath.Join(r.LocalConnectorsDirectory, def.ArchiveFileName())
	logf.FromContext(ctx).V(1).Info("inspecting local builtin package", "path", localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return Implementation{}, errors.Wrapf(ErrIO, "failed to open %s: %v", localPath, err)
	}
	defer f.Close()

	return r.Inspector.Inspect(ctx, kind, f)
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}
