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

package policy

import "strconv"

// Sequencer generates the file names "base_1.ext", "base_2.ext", ...
// Create one per reply so numbering restarts at 1.
type Sequencer struct {
	base string
	ext  string
	n    int
}

// NewSequencer returns a Sequencer for base and ext.  Empty values
// default to "pdf".
func NewSequencer(base, ext string) *Sequencer {
	if base == "" {
		base = "pdf"
	}
	if ext == "" {
		ext = "pdf"
	}
	return &Sequencer{base: base, ext: ext}
}

// DefaultSequencer yields pdf_1.pdf, pdf_2.pdf, ...
func DefaultSequencer() *Sequencer {
	return NewSequencer("pdf", "pdf")
}

// Next returns the next name.
func (s *Sequencer) Next() string {
	s.n++
	return s.base + "_" + strconv.Itoa(s.n) + "." + s.ext
}
