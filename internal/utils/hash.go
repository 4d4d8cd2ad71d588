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

package utils

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/hashstructure/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetObjectHash hashes the JSON form of obj. Going through JSON makes fields
// that only carry unexported state, such as resource quantities, part of
// the hash.
func GetObjectHash(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}

	hash, err := hashstructure.Hash(generic, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}

	return fmt.Sprint(hash), nil
}
