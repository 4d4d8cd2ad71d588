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

package connector

import (
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"
)

const runtimeOptionsEnvKey = "env"

// RuntimeOptions is the parsed view of the custom runtime options payload.
// Only the env object is interpreted, everything else stays in the raw
// payload and is never rebuilt from the parsed fields.
type RuntimeOptions struct {
	Env map[string]string

	raw      string
	residual *gabs.Container
}

// ParseRuntimeOptions parses the custom runtime options. An empty payload
// yields empty options.
func ParseRuntimeOptions(raw string) (*RuntimeOptions, error) {
	opts := &RuntimeOptions{
		Env: map[string]string{},
		raw: raw,
	}

	if strings.TrimSpace(raw) == "" {
		opts.residual = gabs.New()
		return opts, nil
	}

	parsed, err := gabs.ParseJSON([]byte(raw))
	if err != nil {
		return nil, errors.Wrap(err, "custom runtime options are not valid JSON")
	}
	if _, ok := parsed.Data().(map[string]interface{}); !ok {
		return nil, errors.New("custom runtime options must be a JSON object")
	}

	if env := parsed.Search(runtimeOptionsEnvKey); env != nil && env.Data() != nil {
		if _, ok := env.Data().(map[string]interface{}); !ok {
			return nil, errors.Errorf("custom runtime options field %q must be an object", runtimeOptionsEnvKey)
		}

		for name, value := range env.ChildrenMap() {
			str, ok := value.Data().(string)
			if !ok {
				return nil, errors.Errorf("custom runtime options field %q has a non string value %v",
					fmt.Sprintf("%s.%s", runtimeOptionsEnvKey, name), value.Data())
			}
			opts.Env[name] = str
		}
	}

	residual, err := gabs.ParseJSON([]byte(raw))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_ = residual.Delete(runtimeOptionsEnvKey)
	opts.residual = residual

	return opts, nil
}

// Raw returns the payload exactly as it was parsed.
func (o *RuntimeOptions) Raw() string {
	return o.raw
}

// Residual returns the fields of the payload other than env.
func (o *RuntimeOptions) Residual() *gabs.Container {
	return o.residual
}
