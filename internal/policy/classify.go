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

import "github.com/matta/mailpdf/internal/message"

const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// Classify returns the parts worth converting, in order.  Part 0 is
// the message body and is never returned.  Only parts declared as
// PDF, JPEG or PNG qualify; the declared type must match exactly.
func Classify(parts []message.Part) []message.Part {
	var out []message.Part
	for i, p := range parts {
		if i == 0 {
			continue
		}
		switch p.MimeType {
		case MimePDF, MimeJPEG, MimePNG:
			out = append(out, p)
		}
	}
	return out
}

// NeedsConversion reports whether a part of the given media type must
// be converted before it is sent back.  PDFs are forwarded as is.
func NeedsConversion(mimeType string) bool {
	return mimeType != MimePDF
}
