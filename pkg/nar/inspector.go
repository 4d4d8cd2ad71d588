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
	"archive/zip"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

// ServiceDescriptorPath is where a connector package declares its
// implementation classes.
const ServiceDescriptorPath = "META-INF/services/pulsar-io.yaml"

var (
	// ErrPackage is returned for unreadable or malformed packages.
	ErrPackage = errors.New("invalid connector package")
	// ErrImplementation is returned when a package does not declare exactly
	// one implementation and payload type for the requested kind.
	ErrImplementation = errors.New("connector implementation not resolved")
	// ErrIO is returned when the package could not be staged locally.
	ErrIO = errors.New("connector package I/O failure")
)

// ServiceDescriptor is the connector metadata bundled in a package.
type ServiceDescriptor struct {
	Name                string `json:"name,omitempty"`
	Description         string `json:"description,omitempty"`
	SinkClass           string `json:"sinkClass,omitempty"`
	SourceClass         string `json:"sourceClass,omitempty"`
	SinkConfigClass     string `json:"sinkConfigClass,omitempty"`
	SourceConfigClass   string `json:"sourceConfigClass,omitempty"`
	SinkTypeClassName   string `json:"sinkTypeClassName,omitempty"`
	SourceTypeClassName string `json:"sourceTypeClassName,omitempty"`
}

func (d ServiceDescriptor) classFor(kind connector.Kind) (className, typeClassName string) {
	if kind == connector.KindSource {
		return d.SourceClass, d.SourceTypeClassName
	}

	return d.SinkClass, d.SinkTypeClassName
}

// Implementation is what a package resolves to.
type Implementation struct {
	ClassName     string
	TypeClassName string
	// ArchivePath is where the package is mounted in the runtime container.
	ArchivePath string
	// Image is the runner image of a builtin connector.
	Image string
}

// Inspector finds the implementation of a connector kind inside a package.
type Inspector interface {
	Inspect(ctx context.Context, kind connector.Kind, pkg io.Reader) (Implementation, error)
}

// ArchiveInspector inspects NAR (zip) packages.
type ArchiveInspector struct {
	// TempDir is where uploaded packages are staged, os.TempDir when empty.
	TempDir string
}

func NewArchiveInspector(tempDir string) *ArchiveInspector {
	return &ArchiveInspector{TempDir: tempDir}
}

// Inspect stages pkg in a temporary file, which is removed before returning.
func (i *ArchiveInspector) Inspect(ctx context.Context, kind connector.Kind, pkg io.Reader) (impl Implementation, err error) {
	log := logf.FromContext(ctx).WithValues("kind", kind)

	tmp, err := os.CreateTemp(i.TempDir, "connector-*.nar")
	if err != nil {
		return impl, errors.Wrapf(ErrIO, "failed to create package temp file: %v", err)
	}
	defer func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			log.Error(rmErr, "fail to remove package temp file", "file", tmp.Name())
		}
	}()

	size, err := io.Copy(tmp, pkg)
	if err != nil {
		return impl, errors.Wrapf(ErrIO, "failed to stage package: %v", err)
	}

	reader, err := zip.NewReader(tmp, size)
	if err != nil {
		return impl, errors.Wrapf(ErrPackage, "not a NAR archive: %v", err)
	}

	impl, err = inspectArchive(reader, kind)
	if err != nil {
		return impl, err
	}

	log.V(1).Info("inspected connector package", "className", impl.ClassName, "typeClassName", impl.TypeClassName)

	return impl, nil
}

func inspectArchive(reader *zip.Reader, kind connector.Kind) (Implementation, error) {
	var descriptors []ServiceDescriptor

	for _, file := range reader.File {
		if file.Name != ServiceDescriptorPath && !strings.HasSuffix(file.Name, "/"+ServiceDescriptorPath) {
			continue
		}

		desc, err := readDescriptor(file)
		if err != nil {
			return Implementation{}, err
		}
		descriptors = append(descriptors, desc)
	}

	if len(descriptors) == 0 {
		return Implementation{}, errors.Wrapf(ErrImplementation, "package has no %s", ServiceDescriptorPath)
	}

	classes := lo.Uniq(lo.FilterMap(descriptors, func(d ServiceDescriptor, _ int) (string, bool) {
		className, _ := d.classFor(kind)
		return className, className != ""
	}))
	switch len(classes) {
	case 0:
		return Implementation{}, errors.Wrapf(ErrImplementation, "package declares no %s class", kind)
	case 1:
	default:
		return Implementation{}, errors.Wrapf(ErrImplementation, "package declares %d %s classes %v", len(classes), kind, classes)
	}

	types := lo.Uniq(lo.FilterMap(descriptors, func(d ServiceDescriptor, _ int) (string, bool) {
		className, typeClassName := d.classFor(kind)
		return typeClassName, className == classes[0] && typeClassName != ""
	}))
	switch len(types) {
	case 0:
		return Implementation{}, errors.Wrapf(ErrImplementation, "package declares no payload type for %s", classes[0])
	case 1:
	default:
		return Implementation{}, errors.Wrapf(ErrImplementation, "package declares %d payload types %v for %s", len(types), types, classes[0])
	}

	return Implementation{
		ClassName:     classes[0],
		TypeClassName: types[0],
	}, nil
}

func readDescriptor(file *zip.File) (ServiceDescriptor, error) {
	var desc ServiceDescriptor

	rc, err := file.Open()
	if err != nil {
		return desc, errors.Wrapf(ErrPackage, "failed to open %s: %v", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return desc, errors.Wrapf(ErrPackage, "failed to read %s: %v", file.Name, err)
	}

	if err := yaml.Unmarshal(data, &desc); err != nil {
		return desc, errors.Wrapf(ErrPackage, "malformed %s: %v", file.Name, err)
	}

	return desc, nil
}
