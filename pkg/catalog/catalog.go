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

package catalog

import (
	"os"
	"path"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// ErrConnectorNotFound is returned when no builtin connector is registered
// under the requested id.
var ErrConnectorNotFound = errors.New("connector not found")

// ConnectorDefinition describes a builtin connector package.
type ConnectorDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`

	ImageRegistry   string `json:"imageRegistry,omitempty"`
	ImageRepository string `json:"imageRepository,omitempty"`
	ImageTag        string `json:"imageTag,omitempty"`

	// Jar is the archive file name of the connector package.
	Jar string `json:"jar"`

	SinkClass           string `json:"sinkClass,omitempty"`
	SourceClass         string `json:"sourceClass,omitempty"`
	SinkTypeClassName   string `json:"sinkTypeClassName,omitempty"`
	SourceTypeClassName string `json:"sourceTypeClassName,omitempty"`
}

// ArchiveFileName is the base name of the connector archive.
func (d ConnectorDefinition) ArchiveFileName() string {
	return path.Base(d.Jar)
}

// Image returns the runner image of the connector, or an empty string when
// the definition has no image repository.
func (d ConnectorDefinition) Image() string {
	if d.ImageRepository == "" {
		return ""
	}

	image := d.ImageRepository + ":" + d.ImageTag
	if d.ImageRegistry != "" {
		image = d.ImageRegistry + "/" + image
	}

	return image
}

// Catalog is a read only index of builtin connectors keyed by id.
type Catalog struct {
	// m guards definitions and archives
	m           sync.RWMutex
	definitions map[string]ConnectorDefinition
	archives    map[string]string
}

// New builds a catalog from the given definitions.
func New(definitions ...ConnectorDefinition) (*Catalog, error) {
	c := &Catalog{
		definitions: make(map[string]ConnectorDefinition, len(definitions)),
		archives:    make(map[string]string, len(definitions)),
	}

	for _, def := range definitions {
		if err := c.add(def); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Load parses a YAML (or JSON) list of connector definitions.
func Load(data []byte) (*Catalog, error) {
	var definitions []ConnectorDefinition
	if err := yaml.UnmarshalStrict(data, &definitions); err != nil {
		return nil, errors.Wrap(err, "failed to parse connector definitions")
	}

	return New(definitions...)
}

// LoadFile reads the connector definitions from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read connector definitions from %s", path)
	}

	c, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid connector definitions file %s", path)
	}

	return c, nil
}

func (c *Catalog) add(def ConnectorDefinition) error {
	if def.ID == "" {
		return errors.New("connector definition without id")
	}
	if def.Jar == "" {
		return errors.Errorf("connector definition %s has no jar", def.ID)
	}
	if _, err := semver.NewVersion(def.Version); err != nil {
		return errors.Wrapf(err, "connector definition %s has an invalid version %q", def.ID, def.Version)
	}
	if def.ImageTag == "" {
		def.ImageTag = def.Version
	}

	if _, ok := c.definitions[def.ID]; ok {
		return errors.Errorf("connector definition %s is registered twice", def.ID)
	}
	archive := def.ArchiveFileName()
	if other, ok := c.archives[archive]; ok {
		return errors.Errorf("connector definitions %s and %s share the archive %s", other, def.ID, archive)
	}

	c.definitions[def.ID] = def
	c.archives[archive] = def.ID

	return nil
}

// Lookup returns the definition registered under id.
func (c *Catalog) Lookup(id string) (ConnectorDefinition, error) {
	c.m.RLock()
	defer c.m.RUnlock()

	def, ok := c.definitions[id]
	if !ok {
		return ConnectorDefinition{}, errors.Wrapf(ErrConnectorNotFound, "builtin connector %q", id)
	}

	return def, nil
}

// LookupByArchive returns the definition whose archive has the given file
// name. Any directory part of archive is ignored.
func (c *Catalog) LookupByArchive(archive string) (ConnectorDefinition, error) {
	c.m.RLock()
	defer c.m.RUnlock()

	id, ok := c.archives[path.Base(archive)]
	if !ok {
		return ConnectorDefinition{}, errors.Wrapf(ErrConnectorNotFound, "builtin connector archive %q", archive)
	}

	return c.definitions[id], nil
}

// List returns all definitions ordered by id.
func (c *Catalog) List() []ConnectorDefinition {
	c.m.RLock()
	defer c.m.RUnlock()

	out := make([]ConnectorDefinition, 0, len(c.definitions))
	for _, def := range c.definitions {
		out = append(out, def)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out
}
