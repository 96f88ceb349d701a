// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoder

import (
	"slices"

	"m4o.io/osmblock/model"
)

// Table is the sorted string table of a block.  Index 0 holds the empty
// string so that it can serve as the dense node tag delimiter.
type Table struct {
	index   map[string]int32
	strings []string
}

// NewTable collects the tag keys and values, user names and member roles
// of the entities.
func NewTable(groups ...[]model.Entity) *Table {
	seen := map[string]struct{}{"": {}}

	for _, entities := range groups {
		for _, e := range entities {
			for k, v := range e.GetTags() {
				seen[k] = struct{}{}
				seen[v] = struct{}{}
			}

			if info := e.GetInfo(); info != nil {
				seen[info.User] = struct{}{}
			}

			if r, ok := e.(*model.Relation); ok {
				for _, m := range r.Members {
					seen[m.Role] = struct{}{}
				}
			}
		}
	}

	strings := make([]string, 0, len(seen))
	for s := range seen {
		strings = append(strings, s)
	}

	slices.Sort(strings)

	index := make(map[string]int32, len(strings))
	for i, s := range strings {
		index[s] = int32(i)
	}

	return &Table{index: index, strings: strings}
}

// IndexOf returns the index of a string collected by NewTable.
func (t *Table) IndexOf(value string) int32 {
	index, ok := t.index[value]
	if !ok {
		panic("string " + value + " not in table")
	}

	return index
}

func (t *Table) AsArray() []string {
	return t.strings
}
