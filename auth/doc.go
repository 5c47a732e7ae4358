// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the credentials used by the API.

# Admin Keys

The decision owner authenticates with an HMAC-SHA256 key derived from the
decision ID:

	adminKey := auth.GenerateAdminKey(decisionID, salt)
	err := auth.AuthorizeAdmin(r, decisionID, salt) // reads X-Admin-Key

Keys are deterministic, so nothing is stored. They are unpadded URL-safe
base64.

# Evaluator Tokens

Team members receive a random 192-bit token when they join a decision:

	token, err := auth.GenerateEvaluatorToken()
	token, err := auth.EvaluatorToken(r) // reads X-Evaluator-Token

The token is the only link between a person and their scores. Results never
carry it.

# Share Slugs

Opened decisions get a short base62 slug derived from the decision ID:

	slug := auth.GenerateShareSlug(decisionID, salt)

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns the first 8 bytes (16 hex chars) of a salted HMAC.
*/
package auth
