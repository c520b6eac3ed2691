// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package picker loads and bounds local photos for inline sending.
//
// The terminal analog of a photo-library picker: the user supplies a file
// path, the photo is downscaled and re-encoded as a reduced-quality JPEG,
// and the result comes back as a base64 data URI small enough to inline
// into a message document. There is no automatic compression retry: a photo
// that cannot be bounded is rejected and the user picks a different one.
package picker
