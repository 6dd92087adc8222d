// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

// Package upload stores user uploads on the local filesystem.
//
// Files are named "<uuid>-<sanitized original name>" and served by the API
// under /uploads/. Decodable images also get a thumbnail in the thumb/
// subdirectory, scaled down to upload.thumb_width pixels wide.
package upload
