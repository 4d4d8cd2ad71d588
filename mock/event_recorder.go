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
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
)

// EventRecorder keeps the reasons of the recorded events.
type EventRecorder struct {
	m      sync.Mutex
	events []string
}

var _ record.EventRecorder = &EventRecorder{}

func (r *EventRecorder) Event(object runtime.Object, eventtype, reason, message string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.events = append(r.events, eventtype+" "+reason)
}

// Eventf is just like Event, but with Sprintf for the message field.
func (r *EventRecorder) Eventf(object runtime.Object, eventtype, reason, messageFmt string, args ...interface{}) {
	r.Event(object, eventtype, reason, fmt.Sprintf(messageFmt, args...))
}

// AnnotatedEventf is just like eventf, but with annotations attached
func (r *EventRecorder) AnnotatedEventf(object runtime.Object, annotations map[string]string, eventtype, reason, messageFmt string, args ...interface{}) {
	r.Eventf(object, eventtype, reason, messageFmt, args...)
}

// Events returns the recorded "<type> <reason>" pairs in order.
func (r *EventRecorder) Events() []string {
	r.m.Lock()
	defer r.m.Unlock()

	return append([]string(nil), r.events...)
}
