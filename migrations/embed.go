// Package migrations — встроенные SQL-миграции (порядок важен: 001, 002, ...).
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
