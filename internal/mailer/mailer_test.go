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

package mailer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jhillyerd/enmime/v2"
	"github.com/matta/mailpdf/internal/message"
)

func TestContentType(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"pdf_1.pdf", "application/pdf"},
		{"scan.PNG", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"noext", "application/octet-stream"},
		{"weird.zzzz", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := ContentType(tc.name); got != tc.want {
			t.Errorf("ContentType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCompose(t *testing.T) {
	pdf1 := []byte("%PDF-1.3\nfirst\x00\xff")
	pdf2 := []byte("%PDF-1.4\nsecond")
	raw, err := Compose(Reply{
		From:       "bot@example.com",
		To:         "alice@example.com",
		Maintainer: "maint@example.com",
		Attachments: []message.Attachment{
			{Name: "pdf_1.pdf", Data: pdf1},
			{Name: "pdf_2.pdf", Data: pdf2},
		},
	})
	if err != nil {
		t.Fatalf("Compose() = %v", err)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadEnvelope() = %v", err)
	}
	headers := map[string]string{
		"From":           "bot@example.com",
		"To":             "alice@example.com",
		"Subject":        Subject,
		"Auto-Submitted": "auto-generated",
	}
	for name, want := range headers {
		if got := env.GetHeader(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
	if !strings.Contains(env.Text, "maint@example.com") {
		t.Errorf("body %q does not name the maintainer", env.Text)
	}

	type att struct {
		Name, ContentType string
		Content           []byte
	}
	var got []att
	for _, p := range env.Attachments {
		got = append(got, att{p.FileName, p.ContentType, p.Content})
	}
	want := []att{
		{"pdf_1.pdf", "application/pdf", pdf1},
		{"pdf_2.pdf", "application/pdf", pdf2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attachments mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeNoRecipient(t *testing.T) {
	if _, err := Compose(Reply{From: "bot@example.com"}); err == nil {
		t.Error("Compose() without recipient = nil error, want error")
	}
}
