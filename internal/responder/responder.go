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

// Package responder answers allowed senders' image and PDF
// attachments with PDFs, and clears processed and stale mail out of
// the inbox.
package responder

import (
	"context"
	"net/mail"
	"time"

	"github.com/matta/mailpdf/internal/mailer"
	"github.com/matta/mailpdf/internal/message"
	"github.com/matta/mailpdf/internal/policy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Settings is the fixed configuration of a Processor.
type Settings struct {
	// The bot's own address, used as the reply sender.
	BotAddress string

	// Named in the reply text as the contact for problems.
	MaintainerAddress string

	// Senders that get answered.
	AllowList policy.AllowList

	// Selects the candidate messages.  Empty means all mail.
	Query string
}

// Stats counts what a run did.
type Stats struct {
	Listed        int
	FetchFailed   int
	Malformed     int
	Unauthorized  int
	Ignored       int
	NoAttachments int
	Trashed       int
	Replied       int
}

// Processor runs the inbox processing policy over a Mailbox.
type Processor struct {
	settings Settings
	mail     Mailbox
	conv     Converter
	journal  Journal
	log      *zap.Logger
	now      func() time.Time
}

// Option configures optional Processor behavior.
type Option func(*Processor)

// WithJournal makes the processor consult and update j.
func WithJournal(j Journal) Option {
	return func(p *Processor) { p.journal = j }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func New(s Settings, mail Mailbox, conv Converter, log *zap.Logger, opts ...Option) *Processor {
	p := &Processor{
		settings: s,
		mail:     mail,
		conv:     conv,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every listed message once, in listing order.
//
// Failures to list or fetch are logged and skipped, unless they are
// message.ServiceErrors.  Service errors and failures to fetch an
// attachment, send or trash end the run and are returned.
func (p *Processor) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	ids, err := p.list(ctx)
	if err != nil {
		if message.IsServiceError(err) {
			return stats, err
		}
		p.log.Warn("unable to list messages; treating the inbox as empty", zap.Error(err))
		ids = nil
	}
	stats.Listed = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.handle(ctx, id, &stats); err != nil {
			return stats, errors.Wrapf(err, "processing message %v", id.PermID)
		}
	}
	p.log.Info("run complete",
		zap.Int("listed", stats.Listed),
		zap.Int("replied", stats.Replied),
		zap.Int("trashed", stats.Trashed),
		zap.Int("ignored", stats.Ignored),
		zap.Int("unauthorized", stats.Unauthorized),
		zap.Int("fetch_failed", stats.FetchFailed),
		zap.Int("malformed", stats.Malformed))
	return stats, nil
}

// list returns the IDs of all candidate messages, without duplicates,
// in the order they were first listed.
func (p *Processor) list(ctx context.Context) ([]message.ID, error) {
	seen := make(map[string]bool)
	var ids []message.ID
	err := p.mail.ListAll(ctx, p.settings.Query, func(id message.ID) error {
		if seen[id.PermID] {
			return nil
		}
		seen[id.PermID] = true
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *Processor) handle(ctx context.Context, id message.ID, stats *Stats) error {
	log := p.log.With(zap.String("id", id.PermID))

	msg, err := p.mail.GetMessage(ctx, id.PermID)
	if err != nil {
		if message.IsServiceError(err) {
			return err
		}
		log.Warn("unable to fetch message; skipping", zap.Error(err))
		stats.FetchFailed++
		return nil
	}

	from, ok := msg.Header("From")
	if !ok {
		log.Warn("message has no From header; skipping")
		stats.Malformed++
		return nil
	}
	sender := policy.SenderAddress(from)
	log = log.With(zap.String("sender", sender))
	if !p.settings.AllowList.Contains(sender) {
		log.Info("sender not in allow list")
		stats.Unauthorized++
		return nil
	}

	subject, _ := msg.Header("Subject")
	log = log.With(zap.String("subject", subject))
	dateStr, ok := msg.Header("Date")
	if !ok {
		log.Warn("message has no Date header; skipping")
		stats.Malformed++
		return nil
	}
	date, err := mail.ParseDate(dateStr)
	if err != nil {
		log.Warn("unable to parse Date header; skipping", zap.String("date", dateStr), zap.Error(err))
		stats.Malformed++
		return nil
	}

	age := p.now().Sub(date)
	switch policy.Decide(age) {
	case policy.Ignore:
		log.Debug("message too old to answer; leaving it", zap.Duration("age", age))
		stats.Ignored++
		return nil
	case policy.Trash:
		log.Info("trashing stale message", zap.Duration("age", age))
		return p.trash(ctx, id, "stale", stats)
	}

	parts := policy.Classify(msg.Parts)
	if len(parts) == 0 {
		log.Debug("no convertible attachments")
		stats.NoAttachments++
		return nil
	}

	if p.journal != nil {
		replied, err := p.journal.HasReplied(ctx, id.PermID)
		if err != nil {
			log.Warn("unable to read journal", zap.Error(err))
		} else if replied {
			log.Info("already answered; trashing without a new reply")
			return p.trash(ctx, id, "already answered", stats)
		}
	}

	attachments, err := p.convert(ctx, log, id.PermID, parts)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		log.Warn("no attachment could be converted; not answering")
		return nil
	}

	raw, err := mailer.Compose(mailer.Reply{
		From:        p.settings.BotAddress,
		To:          sender,
		Maintainer:  p.settings.MaintainerAddress,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}
	log.Info("sending reply", zap.Int("attachments", len(attachments)))
	sentID, err := p.mail.Send(ctx, raw)
	if err != nil {
		return errors.Wrap(err, "unable to send reply")
	}
	stats.Replied++
	log.Debug("reply sent", zap.String("reply_id", sentID))
	if p.journal != nil {
		if err := p.journal.RecordReply(ctx, id, sender, len(attachments)); err != nil {
			log.Warn("unable to record reply in journal", zap.Error(err))
		}
	}
	return p.trash(ctx, id, "answered", stats)
}

// convert fetches each part and returns the reply attachments, named
// by a fresh sequencer.  Images that fail to convert are left out.
func (p *Processor) convert(ctx context.Context, log *zap.Logger, messageID string, parts []message.Part) ([]message.Attachment, error) {
	names := policy.DefaultSequencer()
	var out []message.Attachment
	for _, part := range parts {
		data := part.Data
		if part.AttachmentID != "" {
			var err error
			data, err = p.mail.GetAttachment(ctx, messageID, part.AttachmentID)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to fetch attachment %q", part.Filename)
			}
		}
		if policy.NeedsConversion(part.MimeType) {
			pdf, err := p.conv.ToPDF(data)
			if err != nil {
				log.Warn("unable to convert attachment; leaving it out",
					zap.String("filename", part.Filename),
					zap.String("mime_type", part.MimeType),
					zap.Error(err))
				continue
			}
			data = pdf
		}
		out = append(out, message.Attachment{Name: names.Next(), Data: data})
	}
	return out, nil
}

func (p *Processor) trash(ctx context.Context, id message.ID, reason string, stats *Stats) error {
	if err := p.mail.Trash(ctx, id.PermID); err != nil {
		return errors.Wrap(err, "unable to trash message")
	}
	stats.Trashed++
	if p.journal != nil {
		if err := p.journal.RecordTrash(ctx, id, reason); err != nil {
			p.log.Warn("unable to record trash in journal", zap.String("id", id.PermID), zap.Error(err))
		}
	}
	return nil
}
