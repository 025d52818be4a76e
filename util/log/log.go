// Copyright 2024 The CloudStor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package log is a leveled logger for the sdk.
// Output defaults to stderr and can be redirected to any io.Writer,
// typically a rolling file via lumberjack.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level log level.
type Level int

// log levels
const (
	Ldebug Level = iota
	Linfo
	Lwarn
	Lerror
	Lpanic
	Lfatal
	maxLevel
)

var levelPrefixes = []string{
	"[DEBUG] ",
	"[INFO] ",
	"[WARN] ",
	"[ERROR] ",
	"[PANIC] ",
	"[FATAL] ",
}

// Logger leveled logger on an io.Writer.
type Logger struct {
	mu    sync.Mutex
	level Level
	out   *log.Logger
}

// New returns a logger writing to w with level lv.
func New(w io.Writer, lv Level) *Logger {
	return &Logger{level: lv, out: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

// SetOutput redirects the logger output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out.SetOutput(w)
	l.mu.Unlock()
}

// SetOutputLevel sets the lowest level to emit.
func (l *Logger) SetOutputLevel(lv Level) {
	l.mu.Lock()
	l.level = lv
	l.mu.Unlock()
}

// OutputLevel returns the current level.
func (l *Logger) OutputLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) outputf(lv Level, format string, v []interface{}) {
	if lv >= maxLevel {
		lv = maxLevel - 1
	}
	l.mu.Lock()
	enabled := lv >= l.level
	l.mu.Unlock()
	if !enabled {
		return
	}
	l.out.Output(3, levelPrefixes[lv]+fmt.Sprintf(format, v...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) { l.outputf(Ldebug, format, v) }

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) { l.outputf(Linfo, format, v) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, v ...interface{}) { l.outputf(Lwarn, format, v) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) { l.outputf(Lerror, format, v) }

var defaultLogger = New(os.Stderr, Linfo)

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) { defaultLogger.SetOutput(w) }

// SetOutputLevel sets the default logger level.
func SetOutputLevel(lv Level) { defaultLogger.SetOutputLevel(lv) }

// OutputLevel returns the default logger level.
func OutputLevel() Level { return defaultLogger.OutputLevel() }

// Debugf logs to the default logger.
func Debugf(format string, v ...interface{}) { defaultLogger.outputf(Ldebug, format, v) }

// Infof logs to the default logger.
func Infof(format string, v ...interface{}) { defaultLogger.outputf(Linfo, format, v) }

// Warnf logs to the default logger.
func Warnf(format string, v ...interface{}) { defaultLogger.outputf(Lwarn, format, v) }

// Errorf logs to the default logger.
func Errorf(format string, v ...interface{}) { defaultLogger.outputf(Lerror, format, v) }
