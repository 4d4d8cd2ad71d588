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

package translate_test

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/utils/ptr"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/internal/translate"
	"github.com/danpi/function-mesh-worker-service/internal/utils"
	"github.com/danpi/function-mesh-worker-service/mock"
	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
	"github.com/danpi/function-mesh-worker-service/pkg/nar"
)

var _ = Describe("translate/sinks", func() {
	var (
		ctx        = context.TODO()
		inspector  *fakeInspector
		translator *translate.Translator
		cfg        *connector.SinkConfig
	)

	upload := func() *strings.Reader {
		return strings.NewReader("nar content")
	}

	BeforeEach(func() {
		inspector = &fakeInspector{}
		translator = translate.NewTranslator(mock.CreateDefaultWorkerContext(), inspector, mock.CreateDefaultCatalog())
		cfg = mock.CreateDefaultSinkConfig()
	})

	Context("with an uploaded package", func() {
		It("should build the sink descriptor", func() {
			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(inspector.calls).To(Equal(1))

			Expect(sink.Kind).To(Equal("Sink"))
			Expect(sink.APIVersion).To(Equal("compute.functionmesh.io/v1alpha1"))
			Expect(sink.Name).To(Equal("sink-es-sample"))
			Expect(sink.Namespace).To(Equal("default"))
			Expect(sink.Labels).To(HaveKeyWithValue(v1alpha1.ComponentKey, "sink"))

			spec := sink.Spec
			Expect(spec.ClassName).To(Equal(mock.SinkClassName))
			Expect(spec.CleanupSubscription).To(BeTrue())
			Expect(*spec.Replicas).To(Equal(int32(1)))
			Expect(spec.Input.Topics).To(Equal([]string{"persistent://public/default/input"}))
			Expect(spec.Input.TypeClassName).To(Equal("[B"))
			Expect(spec.Pulsar.PulsarConfig).To(Equal("test-pulsar-pulsar-cluster-config"))
			Expect(spec.Java.Jar).To(Equal("/pulsar/pulsar-io-elastic-search-2.7.0-rc-pm-3.nar"))
			Expect(*spec.AutoAck).To(BeTrue())
			Expect(spec.SinkConfig.Data).To(Equal(map[string]interface{}{
				"elasticSearchUrl": "https://testing-es.app",
			}))
			Expect(spec.SubscriptionName).To(Equal("test-sub"))
			Expect(spec.SubscriptionPosition).To(Equal(v1alpha1.SubscriptionPositionEarliest))
			Expect(spec.ProcessingGuarantee).To(Equal(v1alpha1.AtleastOnce))
			Expect(spec.MaxMessageRetry).To(Equal(int32(3)))
		})

		It("should merge the env tiers with the instance tier winning", func() {
			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())

			Expect(utils.EnvVarsToMap(sink.Spec.Pod.Env)).To(Equal(map[string]string{
				"unique":  "unique",
				"shared":  "shared-sink",
				"sink":    "sink",
				"runtime": "runtime-env",
				"shared2": "shared2-runtime",
			}))
			Expect(sink.Spec.Pod.Env).To(HaveLen(5))
			Expect(sink.Spec.Pod.Env[0]).To(Equal(corev1.EnvVar{Name: "runtime", Value: "runtime-env"}))
		})

		It("should apply the default resources", func() {
			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())

			requests := sink.Spec.Resources.Requests
			Expect(requests.Cpu().Cmp(resource.MustParse("1"))).To(Equal(0))
			Expect(requests.Memory().Cmp(resource.MustParse("1Gi"))).To(Equal(0))
			Expect(requests.StorageEphemeral().Cmp(resource.MustParse("10Gi"))).To(Equal(0))
			Expect(sink.Spec.Resources.Limits).To(Equal(requests))
		})

		It("should keep the custom runtime options verbatim", func() {
			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.Annotations).To(HaveKeyWithValue(v1alpha1.CustomRuntimeOptionsKey, mock.CustomRuntimeOptions))
			Expect(sink.Annotations).To(HaveKey(v1alpha1.LastSpecKey))
		})

		It("should build identical descriptors from identical input", func() {
			first, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			second, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())

			firstJSON, err := json.Marshal(first)
			Expect(err).NotTo(HaveOccurred())
			secondJSON, err := json.Marshal(second)
			Expect(err).NotTo(HaveOccurred())
			Expect(firstJSON).To(Equal(secondJSON))
		})

		It("should round trip the configuration", func() {
			cfg.RuntimeFlags = "-Xmx1g"
			cfg.TimeoutMs = ptr.To(int64(5000))
			cfg.Resources = &connector.Resources{CPU: 0.5, RAM: 512 << 20, Disk: 1 << 30}

			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())

			extracted, err := translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
			Expect(err).NotTo(HaveOccurred())

			Expect(extracted.Tenant).To(Equal(cfg.Tenant))
			Expect(extracted.Namespace).To(Equal(cfg.Namespace))
			Expect(extracted.Name).To(Equal(cfg.Name))
			Expect(extracted.Configs).To(Equal(cfg.Configs))
			Expect(extracted.Archive).To(Equal(mock.SinkArchive))
			Expect(extracted.Resources).To(Equal(cfg.Resources))
			Expect(extracted.ClassName).To(Equal(cfg.ClassName))
			Expect(extracted.AutoAck).To(Equal(cfg.AutoAck))
			Expect(extracted.CustomRuntimeOptions).To(Equal(mock.CustomRuntimeOptions))
			Expect(extracted.Inputs).To(Equal(cfg.Inputs))
			Expect(extracted.MaxMessageRetries).To(Equal(cfg.MaxMessageRetries))
			Expect(*extracted.CleanupSubscription).To(BeTrue())
			Expect(extracted.Parallelism).To(Equal(cfg.Parallelism))
			Expect(extracted.RuntimeFlags).To(Equal(cfg.RuntimeFlags))
			Expect(extracted.SourceSubscriptionName).To(Equal(cfg.SourceSubscriptionName))
			Expect(extracted.SourceSubscriptionPosition).To(Equal(cfg.SourceSubscriptionPosition))
			Expect(extracted.TimeoutMs).To(Equal(cfg.TimeoutMs))
			Expect(extracted.NegativeAckRedeliveryDelayMs).To(BeNil())
			Expect(extracted.ProcessingGuarantees).To(Equal(connector.AtleastOnce))
		})

		It("should round trip millicore cpu and the largest retry count", func() {
			cfg.Resources = &connector.Resources{CPU: 0.001, RAM: 1 << 20}
			cfg.MaxMessageRetries = math.MaxInt32

			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			extracted, err := translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(extracted.Resources).To(Equal(cfg.Resources))
			Expect(extracted.MaxMessageRetries).To(Equal(cfg.MaxMessageRetries))
		})

		It("should keep unknown runtime option fields when extracting", func() {
			cfg.CustomRuntimeOptions = `{"env":{"a":"b"},"extraDependenciesDir":"/deps","nested":{"x":[1,2]}}`

			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			extracted, err := translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(extracted.CustomRuntimeOptions).To(Equal(cfg.CustomRuntimeOptions))
		})

		It("should fill the sink defaults", func() {
			cfg.AutoAck = nil
			cfg.CleanupSubscription = nil
			cfg.SourceSubscriptionPosition = ""
			cfg.Parallelism = 0

			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(*sink.Spec.AutoAck).To(BeTrue())
			Expect(sink.Spec.CleanupSubscription).To(BeTrue())
			Expect(sink.Spec.SubscriptionPosition).To(Equal(v1alpha1.SubscriptionPositionEarliest))
			Expect(*sink.Spec.Replicas).To(Equal(int32(1)))
		})

		It("should map the latest subscription position", func() {
			cfg.SourceSubscriptionPosition = "latest"
			cfg.CleanupSubscription = ptr.To(false)

			sink, err := translator.BuildSink(ctx, cfg, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.Spec.SubscriptionPosition).To(Equal(v1alpha1.SubscriptionPositionLatest))
			Expect(sink.Spec.CleanupSubscription).To(BeFalse())

			extracted, err := translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(extracted.SourceSubscriptionPosition).To(Equal(connector.Latest))
			Expect(*extracted.CleanupSubscription).To(BeFalse())
		})

		It("should reject a class name the package does not implement", func() {
			cfg.ClassName = "org.example.OtherSink"

			_, err := translator.BuildSink(ctx, cfg, upload())
			Expect(errors.Is(err, nar.ErrImplementation)).To(BeTrue())

			var terr *translate.Error
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Field).To(Equal("className"))
			Expect(terr.Identifier).To(Equal("public/default/sink-es-sample"))
		})
	})

	Context("with a builtin connector", func() {
		BeforeEach(func() {
			cfg.Archive = "builtin://elastic-search"
		})

		It("should resolve the catalog entry without inspecting", func() {
			sink, err := translator.BuildSink(ctx, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(inspector.calls).To(Equal(0))

			Expect(sink.Spec.ClassName).To(Equal(mock.SinkClassName))
			Expect(sink.Spec.Input.TypeClassName).To(Equal("[B"))
			Expect(sink.Spec.Java.Jar).To(Equal("connectors/pulsar-io-elastic-search-2.7.0-rc-pm-3.nar"))
			Expect(sink.Spec.Image).To(Equal("streamnative/pulsar-io-elastic-search:2.7.0-rc-pm-3"))
		})

		It("should extract the builtin archive reference", func() {
			sink, err := translator.BuildSink(ctx, cfg, nil)
			Expect(err).NotTo(HaveOccurred())

			extracted, err := translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(extracted.Archive).To(Equal("builtin://elastic-search"))
		})

		It("should fail for an unknown connector", func() {
			cfg.Archive = "builtin://no-such-connector"

			_, err := translator.BuildSink(ctx, cfg, nil)
			Expect(errors.Is(err, catalog.ErrConnectorNotFound)).To(BeTrue())
		})
	})

	Context("with an invalid configuration", func() {
		var resolver *countingResolver

		BeforeEach(func() {
			resolver = &countingResolver{}
			translator.Resolver = resolver
		})

		DescribeTable("should fail before resolving",
			func(mutate func(*connector.SinkConfig) *strings.Reader, field string) {
				pkg := mutate(cfg)

				var err error
				if pkg == nil {
					_, err = translator.BuildSink(ctx, cfg, nil)
				} else {
					_, err = translator.BuildSink(ctx, cfg, pkg)
				}
				Expect(errors.Is(err, translate.ErrConfiguration)).To(BeTrue())
				Expect(resolver.calls).To(Equal(0))

				var terr *translate.Error
				Expect(errors.As(err, &terr)).To(BeTrue())
				Expect(terr.Kind).To(Equal(connector.KindSink))
				Expect(terr.Field).To(Equal(field))
			},
			Entry("both package kinds", func(c *connector.SinkConfig) *strings.Reader {
				c.Archive = "builtin://elastic-search"
				return upload()
			}, "archive"),
			Entry("no package at all", func(c *connector.SinkConfig) *strings.Reader {
				return nil
			}, "archive"),
			Entry("an empty builtin id", func(c *connector.SinkConfig) *strings.Reader {
				c.Archive = "builtin://"
				return nil
			}, "archive"),
			Entry("an upload without file name", func(c *connector.SinkConfig) *strings.Reader {
				c.Archive = ""
				return upload()
			}, "archive"),
			Entry("a missing tenant", func(c *connector.SinkConfig) *strings.Reader {
				c.Tenant = ""
				return upload()
			}, "tenant"),
			Entry("no inputs", func(c *connector.SinkConfig) *strings.Reader {
				c.Inputs = nil
				return upload()
			}, "inputs"),
			Entry("a negative retry count", func(c *connector.SinkConfig) *strings.Reader {
				c.MaxMessageRetries = -1
				return upload()
			}, "maxMessageRetries"),
			Entry("a retry count above the descriptor range", func(c *connector.SinkConfig) *strings.Reader {
				c.MaxMessageRetries = math.MaxInt32
				c.MaxMessageRetries++
				return upload()
			}, "maxMessageRetries"),
			Entry("cpu finer than a millicore", func(c *connector.SinkConfig) *strings.Reader {
				c.Resources = &connector.Resources{CPU: 0.0015, RAM: 1 << 20}
				return upload()
			}, "resources"),
			Entry("an unknown subscription position", func(c *connector.SinkConfig) *strings.Reader {
				c.SourceSubscriptionPosition = "Middle"
				return upload()
			}, "sourceSubscriptionPosition"),
			Entry("an unknown processing guarantee", func(c *connector.SinkConfig) *strings.Reader {
				c.ProcessingGuarantees = "EXACTLY_TWICE"
				return upload()
			}, "processingGuarantees"),
			Entry("a negative parallelism", func(c *connector.SinkConfig) *strings.Reader {
				c.Parallelism = -2
				return upload()
			}, "parallelism"),
			Entry("runtime options that are not an object", func(c *connector.SinkConfig) *strings.Reader {
				c.CustomRuntimeOptions = `["env"]`
				return upload()
			}, "customRuntimeOptions"),
			Entry("a non string env value", func(c *connector.SinkConfig) *strings.Reader {
				c.CustomRuntimeOptions = `{"env":{"count":1}}`
				return upload()
			}, "customRuntimeOptions"),
		)
	})

	It("should fail to extract a descriptor without archive", func() {
		sink, err := translator.BuildSink(ctx, cfg, upload())
		Expect(err).NotTo(HaveOccurred())
		sink.Spec.Java = nil

		_, err = translator.ExtractSinkConfig("public", "default", "sink-es-sample", sink)
		Expect(errors.Is(err, translate.ErrConfiguration)).To(BeTrue())
	})
})
