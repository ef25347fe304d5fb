// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "log"

// Logger is the capability contract for the info log (the LOG file in
// the DB directory). See DESIGN.md for why this stays on the standard
// library's log package instead of pulling in a structured-logging
// dependency for this one ambient concern.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger writes to the standard library's log package.
type DefaultLogger struct{}

// Infof implements Logger.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Errorf implements Logger.
func (DefaultLogger) Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Fatalf implements Logger.
func (DefaultLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
