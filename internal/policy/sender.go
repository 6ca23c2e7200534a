// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package policy holds the rules deciding which inbox messages are
// answered, which are discarded, and how reply attachments are named.
package policy

import (
	"sort"
	"strings"
)

// SenderAddress returns the bare address of a From header value.
// Values look like "First Last <first_last@example.com>" or
// "email@example.com".
//
// The address is everything after the first '<' minus the final
// character, which is assumed to be the closing '>'.  No case or
// whitespace normalization is done.
func SenderAddress(from string) string {
	i := strings.IndexByte(from, '<')
	if i < 0 {
		return from
	}
	addr := from[i+1:]
	if addr == "" {
		return addr
	}
	return addr[:len(addr)-1]
}

// AllowList is the immutable set of sender addresses the bot answers.
// The zero value allows nobody.
type AllowList struct {
	addrs map[string]struct{}
}

// NewAllowList returns an AllowList holding each non-empty address.
func NewAllowList(addrs ...string) AllowList {
	l := AllowList{addrs: make(map[string]struct{}, len(addrs))}
	for _, a := range addrs {
		if a != "" {
			l.addrs[a] = struct{}{}
		}
	}
	return l
}

// Contains reports whether addr is allowed.  The match is exact and
// case sensitive.
func (l AllowList) Contains(addr string) bool {
	_, ok := l.addrs[addr]
	return ok
}

// Len returns the number of distinct addresses.
func (l AllowList) Len() int {
	return len(l.addrs)
}

// Addresses returns the members in sorted order.
func (l AllowList) Addresses() []string {
	out := make([]string, 0, len(l.addrs))
	for a := range l.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// SplitAddresses splits a list of addresses joined by commas,
// semicolons or whitespace.  Empty entries are dropped.
func SplitAddresses(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
}
