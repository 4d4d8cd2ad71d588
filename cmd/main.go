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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that -apply can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/yaml"

	"github.com/danpi/function-mesh-worker-service/api/v1alpha1"
	"github.com/danpi/function-mesh-worker-service/internal/config"
	"github.com/danpi/function-mesh-worker-service/internal/deployer"
	"github.com/danpi/function-mesh-worker-service/internal/translate"
	"github.com/danpi/function-mesh-worker-service/pkg/catalog"
	"github.com/danpi/function-mesh-worker-service/pkg/connector"
	"github.com/danpi/function-mesh-worker-service/pkg/nar"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	utilruntime.Must(v1alpha1.AddToScheme(scheme))
}

type options struct {
	workerConfig string
	kind         string
	config       string
	pkg          string
	apply        bool
	extract      string
	tenant       string
	namespace    string
	name         string
}

func main() {
	var o options
	flag.StringVar(&o.workerConfig, "worker-config", "conf/worker.yaml", "The worker configuration file.")
	flag.StringVar(&o.kind, "kind", "sink", "The connector kind, sink or source.")
	flag.StringVar(&o.config, "config", "", "The connector configuration file to translate.")
	flag.StringVar(&o.pkg, "package", "", "The uploaded connector package, unset for builtin connectors.")
	flag.BoolVar(&o.apply, "apply", false, "Create or update the descriptor in the cluster.")
	flag.StringVar(&o.extract, "extract", "", "A descriptor file to translate back into a connector configuration.")
	flag.StringVar(&o.tenant, "tenant", "public", "The tenant of the extracted connector.")
	flag.StringVar(&o.namespace, "namespace", "default", "The namespace of the extracted connector.")
	flag.StringVar(&o.name, "name", "", "The name of the extracted connector.")
	opts := zap.Options{
		TimeEncoder: zapcore.RFC3339TimeEncoder,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := zap.New(
		zap.UseFlagOptions(&opts),
		zap.WriteTo(os.Stderr))
	ctrl.SetLogger(logger)
	ctx := logf.IntoContext(ctrl.SetupSignalHandler(), logger)

	if err := run(ctx, o, os.Stdout); err != nil {
		setupLog.Error(err, "translation failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, out io.Writer) error {
	wctx, err := config.LoadFile(o.workerConfig)
	if err != nil {
		return err
	}

	var connectors *catalog.Catalog
	if wctx.ConnectorDefinitionsFile != "" {
		if connectors, err = catalog.LoadFile(wctx.ConnectorDefinitionsFile); err != nil {
			return err
		}
		setupLog.Info("loaded builtin connectors", "count", len(connectors.List()))
	}

	translator := translate.NewTranslator(wctx, nar.NewArchiveInspector(wctx.PackageTempDirectory), connectors)

	var descriptor client.Object
	if o.extract != "" {
		cfg, err := extract(translator, o)
		if err != nil {
			return err
		}
		return printYAML(out, cfg)
	}

	if descriptor, err = build(ctx, translator, o); err != nil {
		return err
	}
	if err = printYAML(out, descriptor); err != nil {
		return err
	}

	if !o.apply {
		return nil
	}
	c, err := client.New(ctrl.GetConfigOrDie(), client.Options{Scheme: scheme})
	if err != nil {
		return errors.Wrap(err, "unable to create kubernetes client")
	}
	result, err := deployer.New(c, nil).Apply(ctx, descriptor)
	if err != nil {
		return err
	}
	logr.FromContextOrDiscard(ctx).Info("applied descriptor", "name", descriptor.GetName(), "result", result)

	return nil
}

func build(ctx context.Context, translator *translate.Translator, o options) (client.Object, error) {
	if o.config == "" {
		return nil, errors.New("-config is required")
	}
	data, err := os.ReadFile(o.config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read connector config %s", o.config)
	}

	var pkg io.Reader
	if o.pkg != "" {
		f, err := os.Open(o.pkg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open package %s", o.pkg)
		}
		defer f.Close()
		pkg = f
	}

	switch connector.Kind(o.kind) {
	case connector.KindSink:
		cfg := &connector.SinkConfig{}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse sink config")
		}
		return translator.BuildSink(ctx, cfg, pkg)
	case connector.KindSource:
		cfg := &connector.SourceConfig{}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse source config")
		}
		return translator.BuildSource(ctx, cfg, pkg)
	default:
		return nil, errors.Errorf("unknown connector kind %q", o.kind)
	}
}

func extract(translator *translate.Translator, o options) (interface{}, error) {
	data, err := os.ReadFile(o.extract)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read descriptor %s", o.extract)
	}

	switch connector.Kind(o.kind) {
	case connector.KindSink:
		sink := &v1alpha1.Sink{}
		if err = yaml.Unmarshal(data, sink); err != nil {
			return nil, errors.Wrap(err, "failed to parse sink descriptor")
		}
		return translator.ExtractSinkConfig(o.tenant, o.namespace, nameOr(o.name, sink.Name), sink)
	case connector.KindSource:
		source := &v1alpha1.Source{}
		if err = yaml.Unmarshal(data, source); err != nil {
			return nil, errors.Wrap(err, "failed to parse source descriptor")
		}
		return translator.ExtractSourceConfig(o.tenant, o.namespace, nameOr(o.name, source.Name), source)
	default:
		return nil, errors.Errorf("unknown connector kind %q", o.kind)
	}
}

func printYAML(out io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to render yaml")
	}
	_, err = fmt.Fprint(out, string(data))
	return err
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
