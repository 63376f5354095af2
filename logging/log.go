/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging is the engine's leveled logger. It exposes the same
// printf-style Debug/Info/Warn/Error call shape every component in this
// module relies on, backed by go.uber.org/zap's SugaredLogger.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	sugared = mustDefault()
)

func mustDefault() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	l, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than panic; logging must never
		// be able to take the engine down.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// SetLogger replaces the package-level logger, e.g. so a host application
// can route engine logs through its own zap instance.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugared = l.Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

func Debug(format string, args ...any) { current().Debugf(format, args...) }
func Info(format string, args ...any)  { current().Infof(format, args...) }
func Warn(format string, args ...any)  { current().Warnf(format, args...) }
func Error(format string, args ...any) { current().Errorf(format, args...) }

// With returns a logger scoped with the given key/value pairs, for call
// sites that want structured fields (run IDs, batch indices) attached to
// every subsequent line.
func With(kv ...any) *zap.SugaredLogger {
	return current().With(kv...)
}
