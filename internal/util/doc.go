// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the storage, config and
// model packages.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file replacement with fsync
//   - TruncateRunesNoEllipsis: UTF-8 safe prefix by character count
//
// # Usage
//
//	preview := util.TruncateRunesNoEllipsis(content, 80)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
