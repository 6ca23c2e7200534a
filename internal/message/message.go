package message

// This file provides the common data objects used by the rest of the
// program.

import (
	"strings"

	"github.com/pkg/errors"
)

// ID defines the properties that uniquely identify a message.
type ID struct {
	// The permanent and unique ID of a message in a storage
	// system.
	PermID string

	// The permanent and unique ID of a thread associated with the
	// message.  May be empty in storage systems that do not
	// support this concept.
	ThreadID string
}

// Header is a single RFC 822 header as delivered by the mail service.
type Header struct {
	Name  string
	Value string
}

// Part is one top level MIME part of a message.
type Part struct {
	// The declared media type, e.g. "image/png".
	MimeType string

	// The file name given by the sender, if any.
	Filename string

	// Identifies the part's body when it must be fetched
	// separately.  Empty when Data holds the body inline.
	AttachmentID string

	// The decoded body, when delivered inline.
	Data []byte
}

// Message is a fully fetched message.  The first part is the message
// body; attachments follow.
type Message struct {
	ID

	Headers []Header
	Parts   []Part
}

// Header returns the value of the first header named name, compared
// case insensitively.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Attachment is a named payload of an outgoing message.
type Attachment struct {
	Name string
	Data []byte
}

// ServiceError reports a failure of the mail service as a whole, such
// as rejected credentials, as opposed to a problem with one message.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err, or any error it wraps, is a
// *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
