// Package loanapproval holds assets embedded into the binary.
package loanapproval

import "embed"

// Migrations contains the goose SQL migrations of the artifact store.
//
//go:embed migrations/*.sql
var Migrations embed.FS
