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

// Package mailer composes the reply carrying converted PDFs back to a
// sender.
package mailer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/matta/mailpdf/internal/message"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// Subject is the subject line of every reply.
const Subject = "Your images as PDFs"

const bodyFormat = "Your converted images are attached as PDFs. This is an automated email. " +
	"This inbox is not regularly monitored. For questions or problems, please contact " +
	"the maintainer at %s"

// Reply describes one outgoing reply.
type Reply struct {
	From        string
	To          string
	Maintainer  string
	Attachments []message.Attachment
}

// Body returns the fixed informational text of a reply.
func Body(maintainer string) string {
	return fmt.Sprintf(bodyFormat, maintainer)
}

// ContentType returns the media type for an attachment named name,
// inferred from its extension.  It falls back to
// application/octet-stream.
func ContentType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	if t := filetype.GetType(ext); t.MIME.Value != "" {
		return t.MIME.Value
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Compose returns r as an RFC 822 message.
func Compose(r Reply) ([]byte, error) {
	if r.To == "" {
		return nil, errors.New("reply has no recipient")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", r.From)
	m.SetHeader("To", r.To)
	m.SetHeader("Subject", Subject)
	m.SetHeader("Auto-Submitted", "auto-generated")
	m.SetBody("text/plain", Body(r.Maintainer))

	for _, a := range r.Attachments {
		data := a.Data
		m.Attach(a.Name,
			gomail.SetHeader(map[string][]string{
				"Content-Type": {mime.FormatMediaType(ContentType(a.Name), map[string]string{"name": a.Name})},
			}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}))
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "unable to encode reply")
	}
	return buf.Bytes(), nil
}
