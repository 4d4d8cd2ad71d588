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
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("connector/types", func() {
	DescribeTable("validating resources",
		func(res Resources, valid bool) {
			err := res.Validate()
			if valid {
				Expect(err).ShouldNot(HaveOccurred())
			} else {
				Expect(err).Should(HaveOccurred())
			}
		},
		Entry("defaults", DefaultResources(), true),
		Entry("a millicore", Resources{CPU: 0.001, RAM: 1}, true),
		Entry("fractional millicores", Resources{CPU: 0.125, RAM: 1}, true),
		Entry("cpu finer than a millicore", Resources{CPU: 0.0015, RAM: 1}, false),
		Entry("cpu below a millicore", Resources{CPU: 0.0001, RAM: 1}, false),
		Entry("NaN cpu", Resources{CPU: math.NaN(), RAM: 1}, false),
		Entry("no memory", Resources{CPU: 1}, false),
		Entry("negative disk", Resources{CPU: 1, RAM: 1, Disk: -1}, false),
	)

	It("should tell builtin archives apart", func() {
		c := CommonConfig{Archive: "builtin://elastic-search"}
		id, ok := c.BuiltinID()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("elastic-search"))

		c.Archive = "pulsar-io-elastic-search.nar"
		_, ok = c.BuiltinID()
		Expect(ok).To(BeFalse())
	})
})
