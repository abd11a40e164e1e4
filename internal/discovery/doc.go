// SPDX-License-Identifier: MPL-2.0

// Package discovery enumerates shader sources and derives the names the rest
// of the pipeline uses for them.
//
// File organization:
//   - discovery.go: Discover, Options and the collision/reserved-name checks
//   - naming.go: Naming and Sanitize, the pure path-to-name derivations
package discovery
