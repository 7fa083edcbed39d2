// Package config loads fieldview's TOML configuration.
//
// # Resolution
//
// Load follows this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/fieldview/config.toml
//  3. If the file doesn't exist, return Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Fields
//
//	api_base                 backend host:port or URL (default 127.0.0.1:8080)
//	upload_prefix            namespace for relative media refs (default "uploads")
//	token_file               bearer token file (default ~/.config/fieldview/token)
//	request_timeout_seconds  per-request HTTP timeout (default 15)
//	max_media_bytes          cap on a single media body (default 64 MiB)
//	log_level                debug, info, warn or error
//	log_encoding             json or console
//	log_file                 default ~/.local/state/fieldview/fieldview.log
//
// Paths beginning with "~" are expanded against the user's home directory.
// The FIELDVIEW_TOKEN environment variable takes precedence over token_file;
// that ordering is applied by the caller building the token chain.
package config
