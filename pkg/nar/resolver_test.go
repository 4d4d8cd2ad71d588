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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

type fakeInspector struct {
	impl  Implementation
	err   error
	calls int
}

func (f *fakeInspector) Inspect(_ context.Context, _ connector.Kind, pkg io.Reader) (Implementation, error) {
	f.calls++
	_, _ = io.Copy(io.Discard, pkg)

	return f.impl, f.err
}

var _ = Describe("nar/resolver", func() {
	var (
		inspector  *fakeInspector
		connectors *catalog.Catalog
		resolver   *Resolver
	)

	BeforeEach(func() {
		inspector = &fakeInspector{impl: Implementation{
			ClassName:     "org.apache.pulsar.io.elasticsearch.ElasticSearchSink",
			TypeClassName: "[B",
		}}

		var err error
		connectors, err = catalog.New(
			catalog.ConnectorDefinition{
				ID:                "elastic-search",
				Version:           "2.7.0-rc-pm-3",
				ImageRepository:   "streamnative/pulsar-io-elastic-search",
				ImageTag:          "2.7.0-rc-pm-3",
				Jar:               "connectors/pulsar-io-elastic-search-2.7.0-rc-pm-3.nar",
				SinkClass:         "org.apache.pulsar.io.elasticsearch.ElasticSearchSink",
				SinkTypeClassName: "[B",
			},
			catalog.ConnectorDefinition{
				ID:      "kafka",
				Version: "2.7.0",
				Jar:     "pulsar-io-kafka-2.7.0.nar",
			},
		)
		Expect(err).ShouldNot(HaveOccurred())

		resolver = &Resolver{
			Inspector: inspector,
			Catalog:   connectors,
		}
	})

	It("should mount uploaded packages at the upload mount path", func() {
		impl, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{
			Archive: "pulsar-io-elastic-search-2.7.0-rc-pm-3.nar",
			Package: bytes.NewReader([]byte("nar")),
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(impl.ArchivePath).To(Equal("/pulsar/pulsar-io-elastic-search-2.7.0-rc-pm-3.nar"))
		Expect(impl.ClassName).To(Equal("org.apache.pulsar.io.elasticsearch.ElasticSearchSink"))
		Expect(impl.TypeClassName).To(Equal("[B"))
		Expect(inspector.calls).To(Equal(1))
	})

	It("should honour a custom upload mount path", func() {
		resolver.UploadMountPath = "/opt/connectors"

		impl, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{
			Archive: "/tmp/upload-123/pulsar-io-elastic-search.nar",
			Package: bytes.NewReader([]byte("nar")),
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(impl.ArchivePath).To(Equal("/opt/connectors/pulsar-io-elastic-search.nar"))
	})

	It("should propagate inspection failures", func() {
		inspector.err = errors.Wrap(ErrImplementation, "package declares no sink class")

		_, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{
			Archive: "broken.nar",
			Package: bytes.NewReader(nil),
		})
		Expect(errors.Is(err, ErrImplementation)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("broken.nar"))
	})

	It("should resolve builtin connectors from the catalog", func() {
		impl, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "elastic-search"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(impl.ArchivePath).To(Equal("connectors/pulsar-io-elastic-search-2.7.0-rc-pm-3.nar"))
		Expect(impl.ClassName).To(Equal("org.apache.pulsar.io.elasticsearch.ElasticSearchSink"))
		Expect(impl.TypeClassName).To(Equal("[B"))
		Expect(impl.Image).To(Equal("streamnative/pulsar-io-elastic-search:2.7.0-rc-pm-3"))
		Expect(inspector.calls).To(BeZero())
	})

	It("should report unknown builtin connectors", func() {
		_, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "mongo"})
		Expect(errors.Is(err, catalog.ErrConnectorNotFound)).To(BeTrue())
	})

	It("should report builtin connectors without a catalog", func() {
		resolver.Catalog = nil

		_, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "elastic-search"})
		Expect(errors.Is(err, catalog.ErrConnectorNotFound)).To(BeTrue())
	})

	It("should inspect the local package of builtin connectors without classes", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "pulsar-io-kafka-2.7.0.nar"), []byte("nar"), 0o600)).Should(Succeed())
		resolver.LocalConnectorsDirectory = dir
		inspector.impl = Implementation{
			ClassName:     "org.apache.pulsar.io.kafka.KafkaBytesSink",
			TypeClassName: "[B",
		}

		impl, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "kafka"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(impl.ClassName).To(Equal("org.apache.pulsar.io.kafka.KafkaBytesSink"))
		Expect(impl.ArchivePath).To(Equal("connectors/pulsar-io-kafka-2.7.0.nar"))
		Expect(inspector.calls).To(Equal(1))
	})

	It("should fail for builtin connectors without classes nor local package", func() {
		_, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "kafka"})
		Expect(errors.Is(err, ErrImplementation)).To(BeTrue())

		resolver.LocalConnectorsDirectory = GinkgoT().TempDir()
		_, err = resolver.Resolve(context.TODO(), connector.KindSink, Reference{BuiltinID: "kafka"})
		Expect(errors.Is(err, ErrIO)).To(BeTrue())
	})

	It("should fail when no package was uploaded", func() {
		_, err := resolver.Resolve(context.TODO(), connector.KindSink, Reference{Archive: "missing.nar"})
		Expect(errors.Is(err, ErrPackage)).To(BeTrue())
	})
})
