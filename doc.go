// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the choseby API server.

choseby helps customer-facing teams make group decisions. A lead defines
weighted criteria and candidate options, teammates score every option on
every criterion (1-10, with a confidence), and the server aggregates the
scores into a ranked recommendation that also shows where the team
disagrees.

# Starting the Server

With no configuration the server uses a local SQLite file:

	DECISION_SLUG_SALT=... go run .

For PostgreSQL:

	go run . -t postgres -d "postgres://..."

# Configuration

Settings come from flags, then environment variables, then a .env file
(see -env-file):

  - DECISION_SLUG_SALT (-slug-salt): Secret for share slug generation (required)
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): Connection string, required for postgres
  - PORT (-p): Server port (default: 3318)
  - BASE_URL (-base-url): Public URL used in share links

# Architecture

  - scoring: Weighted aggregation and conflict detection
  - store: Atomic score storage and consistent snapshots
  - handlers: HTTP request handlers (decisions, evaluations, results, outcomes)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, validation, JSON helpers
  - metrics: Prometheus instrumentation
  - presets: Built-in criteria sets
  - models: Request/response and domain types
  - auth: Token generation and validation
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
