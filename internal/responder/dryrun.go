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

import (
	"context"

	"go.uber.org/zap"
)

type dryRun struct {
	Mailbox
	log *zap.Logger
}

// DryRun returns a Mailbox that reads from m but only logs sends and
// trashes.
func DryRun(m Mailbox, log *zap.Logger) Mailbox {
	return &dryRun{Mailbox: m, log: log}
}

func (d *dryRun) Send(ctx context.Context, raw []byte) (string, error) {
	d.log.Info("dry run: not sending reply", zap.Int("bytes", len(raw)))
	return "", nil
}

func (d *dryRun) Trash(ctx context.Context, id string) error {
	d.log.Info("dry run: not trashing message", zap.String("id", id))
	return nil
}
