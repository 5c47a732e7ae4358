// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string (default for sqlite: file:choseby.db)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - DecisionSlugSalt: Secret for share slug generation (required)
  - BaseURL: Public URL used in share links (default: http://localhost:<port>)

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type
	-base-url    Public base URL
	-env-file    Dotenv file to load (default: .env, skipped if missing)
	-admin-salt  Admin key salt
	-slug-salt   Decision slug salt

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	BASE_URL           → -base-url
	ADMIN_KEY_SALT     → -admin-salt
	DECISION_SLUG_SALT → -slug-salt

CLI flags take precedence over environment variables. Values from the
dotenv file never override variables that are already set.

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(conn, cfg)
*/
package cliparse
