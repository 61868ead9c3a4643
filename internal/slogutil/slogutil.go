// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slogutil provides the shared slog helpers: attribute constructors
// used across the module and per-package level control through the OPCTRACE
// environment variable ("uasc,client:DEBUG").
package slogutil

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

func Error(err any) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Address(v any) slog.Attr {
	return slog.Any("address", v)
}

func URI(v any) slog.Attr {
	return slog.Any("uri", v)
}

func RequestID(id uint32) slog.Attr {
	return slog.Any("requestID", id)
}

func ChannelID(id uint32) slog.Attr {
	return slog.Any("channelID", id)
}

func SubscriptionID(id uint32) slog.Attr {
	return slog.Any("subscriptionID", id)
}

type levelTracker struct {
	mut    sync.Mutex
	levels map[string]slog.Level
}

var globalLevels = &levelTracker{levels: make(map[string]slog.Level)}

func init() {
	for _, pkg := range strings.Split(os.Getenv("OPCTRACE"), ",") {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		level := slog.LevelDebug
		if cutPkg, levelStr, ok := strings.Cut(pkg, ":"); ok {
			pkg = cutPkg
			if err := level.UnmarshalText([]byte(levelStr)); err != nil {
				slog.Warn("Bad log level requested in OPCTRACE", slog.String("pkg", pkg), slog.String("level", levelStr), Error(err))
				continue
			}
		}
		globalLevels.set(pkg, level)
	}
}

func (t *levelTracker) set(pkg string, level slog.Level) {
	t.mut.Lock()
	defer t.mut.Unlock()
	t.levels[pkg] = level
}

func (t *levelTracker) get(pkg string) (slog.Level, bool) {
	t.mut.Lock()
	defer t.mut.Unlock()
	l, ok := t.levels[pkg]
	return l, ok
}

// LevelFor returns the log level configured for a package, defaulting to
// Info.
func LevelFor(pkg string) slog.Level {
	if l, ok := globalLevels.get(pkg); ok {
		return l
	}
	return slog.LevelInfo
}

// SetLevel overrides the level for a package at runtime.
func SetLevel(pkg string, level slog.Level) {
	globalLevels.set(pkg, level)
}
