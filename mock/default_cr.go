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

package mock

import (
	"github.com/danpi/function-mesh-worker-service/internal/config"
	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

const (
	ClusterName = "test-pulsar"

	SinkClassName     = "org.apache.pulsar.io.elasticsearch.ElasticSearchSink"
	SinkTypeClassName = "[B"
	SinkArchive       = "pulsar-io-elastic-search-2.7.0-rc-pm-3.nar"

	SourceClassName     = "org.apache.pulsar.io.debezium.mongodb.DebeziumMongoDbSource"
	SourceTypeClassName = "org.apache.pulsar.common.schema.KeyValue"
	SourceArchive       = "pulsar-io-debezium-mongodb-2.7.0.nar"

	// CustomRuntimeOptions carries fields besides env that are only kept
	// verbatim.
	CustomRuntimeOptions = `{"clusterName":"test-pulsar","maxReplicas":1,"env":{"runtime":"runtime-env","shared2":"shared2-runtime"}}`
)

func CreateDefaultWorkerContext() *config.WorkerContext {
	wctx := &config.WorkerContext{
		ClusterName: ClusterName,
		Env: map[string]string{
			"unique":  "unique",
			"shared":  "shared",
			"shared2": "shared2",
		},
		SinkEnv: map[string]string{
			"shared":  "shared-sink",
			"shared2": "shared2-sink",
			"sink":    "sink",
		},
		SourceEnv: map[string]string{
			"shared":  "shared-source",
			"shared2": "shared2-source",
			"source":  "source",
		},
	}
	wctx.Default()

	return wctx
}

func CreateDefaultCatalog() *catalog.Catalog {
	c, err := catalog.New(
		catalog.ConnectorDefinition{
			ID:                "elastic-search",
			Name:              "elastic_search",
			Description:       "Writes data into Elastic Search",
			Version:           "2.7.0-rc-pm-3",
			ImageRepository:   "streamnative/pulsar-io-elastic-search",
			Jar:               "connectors/" + SinkArchive,
			SinkClass:         SinkClassName,
			SinkTypeClassName: SinkTypeClassName,
		},
		catalog.ConnectorDefinition{
			ID:                  "debezium-mongodb",
			Name:                "debezium-mongodb",
			Description:         "Debezium MongoDb Source",
			Version:             "2.7.0",
			ImageRepository:     "streamnative/pulsar-io-debezium-mongodb",
			Jar:                 "connectors/" + SourceArchive,
			SourceClass:         SourceClassName,
			SourceTypeClassName: SourceTypeClassName,
		},
	)
	if err != nil {
		panic(err)
	}

	return c
}

// CreateDefaultSinkConfig returns an uploaded elastic search sink.
func CreateDefaultSinkConfig() *connector.SinkConfig {
	autoAck := true
	return &connector.SinkConfig{
		CommonConfig: connector.CommonConfig{
			Tenant:      "public",
			Namespace:   "default",
			Name:        "sink-es-sample",
			ClassName:   SinkClassName,
			Archive:     SinkArchive,
			Parallelism: 1,
			Configs: map[string]interface{}{
				"elasticSearchUrl": "https://testing-es.app",
			},
			CustomRuntimeOptions: CustomRuntimeOptions,
		},
		Inputs:                     []string{"persistent://public/default/input"},
		AutoAck:                    &autoAck,
		SourceSubscriptionName:     "test-sub",
		SourceSubscriptionPosition: connector.Earliest,
		MaxMessageRetries:          3,
	}
}

// CreateDefaultSourceConfig returns an uploaded mongodb source.
func CreateDefaultSourceConfig() *connector.SourceConfig {
	return &connector.SourceConfig{
		CommonConfig: connector.CommonConfig{
			Tenant:      "public",
			Namespace:   "default",
			Name:        "source-mongodb-sample",
			ClassName:   SourceClassName,
			Archive:     SourceArchive,
			Parallelism: 1,
			Configs: map[string]interface{}{
				"name": "test-sourceConfig",
			},
			CustomRuntimeOptions: CustomRuntimeOptions,
		},
		TopicName: "persistent://public/default/destination",
	}
}
