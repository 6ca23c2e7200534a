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

package responder

// This file declares the collaborators the processor depends on.

import (
	"context"

	"github.com/matta/mailpdf/internal/message"
)

// MessageLister lists all message identifiers matching a query.
type MessageLister interface {
	ListAll(ctx context.Context, query string, handler func(message.ID) error) error
}

// MessageGetter fetches messages and their attachment bodies.
type MessageGetter interface {
	GetMessage(ctx context.Context, id string) (*message.Message, error)
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// MessageSender sends a raw RFC 822 message and returns the new
// message's ID.
type MessageSender interface {
	Send(ctx context.Context, raw []byte) (string, error)
}

// MessageTrasher moves a message to the trash.
type MessageTrasher interface {
	Trash(ctx context.Context, id string) error
}

// Mailbox provides all actions the processor takes on a mailbox.
type Mailbox interface {
	MessageLister
	MessageGetter
	MessageSender
	MessageTrasher
}

// Converter turns image data into a PDF document.
type Converter interface {
	ToPDF(image []byte) ([]byte, error)
}

// Journal remembers which messages were already answered, so a run
// interrupted between sending and trashing does not answer twice.
type Journal interface {
	HasReplied(ctx context.Context, id string) (bool, error)
	RecordReply(ctx context.Context, id message.ID, to string, attachments int) error
	RecordTrash(ctx context.Context, id message.ID, reason string) error
}
