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
	"fmt"

	"github.com/pkg/errors"

	"github.com/danpi/function-mesh-worker-service/pkg/connector"
)

// ErrConfiguration is returned for malformed or contradictory connector
// configurations.
var ErrConfiguration = errors.New("invalid connector configuration")

// Error carries the context of a failed translation. It unwraps to the
// underlying cause, so errors.Is works against ErrConfiguration and the
// resolution errors of the nar and catalog packages.
type Error struct {
	Kind connector.Kind
	// Identifier is the fully qualified name of the connector.
	Identifier string
	// Field is the configuration field at fault, if any.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Identifier, e.Err)
	}

	return fmt.Sprintf("%s %s: field %s: %v", e.Kind, e.Identifier, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind connector.Kind, identifier, field string, err error) error {
	return &Error{
		Kind:       kind,
		Identifier: identifier,
		Field:      field,
		Err:        err,
	}
}

func configError(kind connector.Kind, identifier, field, format string, args ...interface{}) error {
	return newError(kind, identifier, field, errors.Wrapf(ErrConfiguration, format, args...))
}
