// Package auth provides authentication and authorisation for doorcore.
//
// It implements a 2-tier role model (viewer → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens validated by signature only
//   - A single configured credential pair (this is a one-door controller,
//     not a multi-tenant system)
//
// The API commands a physical door, so there is no anonymous access:
// every door endpoint requires a valid bearer token.
package auth
