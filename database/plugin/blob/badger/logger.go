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

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// logger routes badger's printf-style output into slog
type logger struct {
	l *slog.Logger
}

func newLogger(l *slog.Logger) logger {
	return logger{l: l}
}

func (b logger) log(level slog.Level, format string, args []any) {
	// badger terminates its messages with a newline
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	b.l.Log(context.Background(), level, msg, "component", "database", "store", "badger")
}

func (b logger) Errorf(format string, args ...any)   { b.log(slog.LevelError, format, args) }
func (b logger) Warningf(format string, args ...any) { b.log(slog.LevelWarn, format, args) }
func (b logger) Infof(format string, args ...any)    { b.log(slog.LevelInfo, format, args) }
func (b logger) Debugf(format string, args ...any)   { b.log(slog.LevelDebug, format, args) }
