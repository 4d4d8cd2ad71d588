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

package v1alpha1

const (
	// CustomRuntimeOptionsKey provides the annotation name we use to store the
	// custom runtime options exactly as they were submitted.
	CustomRuntimeOptionsKey = "compute.functionmesh.io/custom-runtime-options"
	// LastSpecKey provides the annotation name we use to store the hash of the
	// object spec.
	LastSpecKey = "compute.functionmesh.io/last-applied-spec"
	// ComponentKey provide the label name we use to store the kind of the
	// connector
	ComponentKey = "compute.functionmesh.io/component"
)
