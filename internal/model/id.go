// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time in UTC with the monotonic reading stripped,
// so values survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC()
}
