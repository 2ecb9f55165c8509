// Package model defines the invoice domain types shared by the local
// store, the remote backend client, and the CLI.
//
// This package contains type definitions and pure helpers only. All
// other internal packages import model; model imports no internal
// package. This keeps the domain layer free of storage and transport
// concerns.
//
// Key design constraints:
//   - Invoice identity is an opaque string assigned at creation and
//     never reassigned.
//   - All JSON tags use snake_case.
//   - Helpers that need randomness take an explicit *rand.Rand so tests
//     can seed them deterministically.
package model
