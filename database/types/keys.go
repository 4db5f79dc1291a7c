// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	SeatJournalKeyPrefix = "journal:"
	CommitTimestampKey   = "metadata_commit_timestamp"
)

// SeatJournalPrefix returns the key prefix covering every journal entry for a posting
func SeatJournalPrefix(postingId string) []byte {
	return []byte(SeatJournalKeyPrefix + postingId + ":")
}

// SeatJournalKey builds a journal key that sorts by time within a posting.
// The nanosecond timestamp is zero-padded so lexical order matches time order.
func SeatJournalKey(postingId string, at time.Time, entryId string) []byte {
	var sb strings.Builder
	sb.WriteString(SeatJournalKeyPrefix)
	sb.WriteString(postingId)
	sb.WriteString(":")
	sb.WriteString(fmt.Sprintf("%020d", at.UnixNano()))
	sb.WriteString(":")
	sb.WriteString(entryId)
	return []byte(sb.String())
}
