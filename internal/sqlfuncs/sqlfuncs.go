// Package sqlfuncs registers extension SQL functions on a sqlitec
// connection:
//
//	uuid()                      random UUID v4 as TEXT
//	uuid_v7()                   time ordered UUID v7 as TEXT
//	bcrypt_hash(text [, cost])  bcrypt hash of text
//	bcrypt_check(text, hash)    1 when hash matches text, 0 otherwise
//	argon2_hash(text)           argon2id hash of text in PHC format
//	argon2_check(text, hash)    1 when hash matches text, 0 otherwise
//	group_concat_distinct(text) comma separated distinct non-NULL values
package sqlfuncs

import (
	"fmt"

	"github.com/nsqlite/litebind/sqlitec"
)

type scalar struct {
	name          string
	nArg          int
	deterministic bool
	fn            sqlitec.ScalarFunc
}

var scalars = []scalar{
	{name: "uuid", nArg: 0, fn: uuidV4},
	{name: "uuid_v7", nArg: 0, fn: uuidV7},
	{name: "bcrypt_hash", nArg: -1, fn: bcryptHash},
	{name: "bcrypt_check", nArg: 2, deterministic: true, fn: bcryptCheck},
	{name: "argon2_hash", nArg: 1, fn: argon2Hash},
	{name: "argon2_check", nArg: 2, deterministic: true, fn: argon2Check},
}

// Names returns the names of every function Register installs.
func Names() []string {
	names := make([]string, 0, len(scalars)+1)
	for _, s := range scalars {
		names = append(names, s.name)
	}
	return append(names, "group_concat_distinct")
}

// Register installs every extension function on conn.
func Register(conn *sqlitec.Conn) error {
	for _, s := range scalars {
		if err := conn.CreateFunction(s.name, s.nArg, s.deterministic, s.fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", s.name, err)
		}
	}

	err := conn.CreateAggregate("group_concat_distinct", 1, func() sqlitec.AggregateFunc {
		return &groupConcatDistinct{seen: map[string]struct{}{}}
	})
	if err != nil {
		return fmt.Errorf("failed to register group_concat_distinct: %w", err)
	}

	return nil
}
