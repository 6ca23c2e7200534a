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

package gmail

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/matta/mailpdf/internal/message"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gmail_api "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// Scope grants full mailbox access, which trashing requires.
	Scope = gmail_api.MailGoogleComScope

	// See https://developers.google.com/gmail/api/reference/quota
	quotaUnitsMessagesGet     = 5
	quotaUnitsMessagesList    = 5
	quotaUnitsAttachmentsGet  = 5
	quotaUnitsMessagesSend    = 100
	quotaUnitsMessagesTrash   = 5
	quotaUnitsPerSecond       = 250
	rateLimitPerSecond        = quotaUnitsPerSecond * 0.8
	rateLimitBurst            = quotaUnitsPerSecond
	maxTooManyRequestsRetries = 5

	// "me" is a special user ID naming the authenticated user.
	userID = "me"
)

var (
	ErrMessageNotFound = errors.New("gmail message not found")
)

// GmailService provides access to messages stored in Google's GMail
// system.
type GmailService struct {
	service *gmail_api.Service
	limiter *rate.Limiter
	log     *zap.Logger
}

// New returns a GmailService making requests with client.  Extra
// options, such as option.WithEndpoint, are passed to the API client.
func New(ctx context.Context, client *http.Client, log *zap.Logger, opts ...option.ClientOption) (*GmailService, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	s, err := gmail_api.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create Gmail client")
	}
	l := rate.NewLimiter(rateLimitPerSecond, rateLimitBurst)
	return &GmailService{service: s, limiter: l, log: log}, nil
}

// classify wraps err as a message.ServiceError when it shows that the
// service as a whole is unusable, typically because of bad
// credentials.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &message.ServiceError{Op: op, Err: err}
		case http.StatusNotFound:
			for _, item := range apiErr.Errors {
				if item.Reason == "notFound" {
					return errors.Wrap(ErrMessageNotFound, err.Error())
				}
			}
		}
		return err
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return &message.ServiceError{Op: op, Err: err}
	}
	return err
}

func isTooManyRequests(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}

// call waits for units of quota and runs do, retrying while the
// service reports too many requests.
func (s *GmailService) call(ctx context.Context, op string, units int, do func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.WaitN(ctx, units); err != nil {
			return err
		}
		err := do()
		if err != nil && isTooManyRequests(err) && attempt < maxTooManyRequestsRetries {
			s.log.Debug("rate limited by Gmail; retrying", zap.String("op", op), zap.Int("attempt", attempt+1))
			continue
		}
		return classify(op, err)
	}
}

// ListAll calls handler with the ID of every message matching query,
// draining all result pages.  An empty query matches every message.
func (s *GmailService) ListAll(ctx context.Context, query string, handler func(message.ID) error) error {
	req := s.service.Users.Messages.List(userID).Q(query)
	total := 0
	err := s.call(ctx, "list", quotaUnitsMessagesList, func() error {
		total = 0
		return req.Pages(ctx, func(page *gmail_api.ListMessagesResponse) (err error) {
			total += len(page.Messages)
			s.log.Debug("listed page of Gmail messages",
				zap.Int("count", len(page.Messages)), zap.Int("total", total))
			for _, msg := range page.Messages {
				if err := handler(message.ID{PermID: msg.Id, ThreadID: msg.ThreadId}); err != nil {
					return err
				}
			}
			if page.NextPageToken != "" {
				err = s.limiter.WaitN(ctx, quotaUnitsMessagesList)
			}
			return
		})
	})
	s.log.Debug("done listing Gmail messages", zap.Int("total", total))
	if err != nil {
		return errors.Wrap(err, "unable to retrieve all messages")
	}
	return nil
}

// GetMessage fetches the headers and top level parts of a message.
func (s *GmailService) GetMessage(ctx context.Context, id string) (*message.Message, error) {
	var msg *gmail_api.Message
	err := s.call(ctx, "get", quotaUnitsMessagesGet, func() (err error) {
		msg, err = s.service.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
		return
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting message %v from gmail", id)
	}
	m, err := toMessage(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding message %v from gmail", id)
	}
	return m, nil
}

// GetAttachment fetches and decodes the body of an attachment.
func (s *GmailService) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	var body *gmail_api.MessagePartBody
	err := s.call(ctx, "attachment", quotaUnitsAttachmentsGet, func() (err error) {
		body, err = s.service.Users.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
		return
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting attachment of message %v from gmail", messageID)
	}
	data, err := decodeData(body.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding attachment of message %v", messageID)
	}
	return data, nil
}

// Send sends a raw RFC 822 message and returns the sent message's ID.
func (s *GmailService) Send(ctx context.Context, raw []byte) (string, error) {
	out := &gmail_api.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	var sent *gmail_api.Message
	err := s.call(ctx, "send", quotaUnitsMessagesSend, func() (err error) {
		sent, err = s.service.Users.Messages.Send(userID, out).Context(ctx).Do()
		return
	})
	if err != nil {
		return "", errors.Wrap(err, "sending message with gmail")
	}
	return sent.Id, nil
}

// Trash moves a message to the trash.
func (s *GmailService) Trash(ctx context.Context, id string) error {
	err := s.call(ctx, "trash", quotaUnitsMessagesTrash, func() error {
		_, err := s.service.Users.Messages.Trash(userID, id).Context(ctx).Do()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "trashing message %v in gmail", id)
	}
	return nil
}

func toMessage(msg *gmail_api.Message) (*message.Message, error) {
	m := &message.Message{ID: message.ID{PermID: msg.Id, ThreadID: msg.ThreadId}}
	if msg.Payload == nil {
		return m, nil
	}
	for _, h := range msg.Payload.Headers {
		m.Headers = append(m.Headers, message.Header{Name: h.Name, Value: h.Value})
	}
	for _, p := range msg.Payload.Parts {
		part := message.Part{MimeType: p.MimeType, Filename: p.Filename}
		if p.Body != nil {
			part.AttachmentID = p.Body.AttachmentId
			if part.AttachmentID == "" && p.Body.Data != "" {
				data, err := decodeData(p.Body.Data)
				if err != nil {
					return nil, errors.Wrapf(err, "part %q", p.PartId)
				}
				part.Data = data
			}
		}
		m.Parts = append(m.Parts, part)
	}
	return m, nil
}

// decodeData decodes the base64url encoding the API uses for bodies.
// Padding is optional.
func decodeData(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
