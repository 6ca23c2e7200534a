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

import (
	"fmt"
	"time"
)

const (
	// IgnoreAfter is the age past which an allowed message is left
	// alone entirely, so a bug in trashing can never turn into an
	// endless stream of replies.
	IgnoreAfter = 3 * time.Hour

	// TrashAfter is the age past which a message is discarded
	// without a reply.  It catches spam and messages whose earlier
	// processing failed.
	TrashAfter = 7 * 24 * time.Hour
)

// Action is what to do with an allowed message of a given age.
type Action int

const (
	Respond Action = iota
	Ignore
	Trash
)

func (a Action) String() string {
	switch a {
	case Respond:
		return "respond"
	case Ignore:
		return "ignore"
	case Trash:
		return "trash"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Decide maps the age of a message to an Action.
//
// Messages older than TrashAfter are trashed.  Messages older than
// IgnoreAfter but not older than TrashAfter get no action at all and
// sit in the inbox until they become old enough to trash.  Everything
// else, including messages dated in the future, is answered.
func Decide(age time.Duration) Action {
	switch {
	case age > TrashAfter:
		return Trash
	case age > IgnoreAfter:
		return Ignore
	default:
		return Respond
	}
}
