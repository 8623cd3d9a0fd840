// Package claims decodes permission and role claims from access tokens.
//
// Tokens are decoded, not verified: the backend is the authority on token
// validity and the claims are only used to decide which views a user may
// reach. Requirements are satisfied with AND semantics, meaning every
// required permission and every required role must be present.
package claims
