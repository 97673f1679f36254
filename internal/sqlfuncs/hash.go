package sqlfuncs

import (
	"errors"
	"fmt"

	"github.com/matthewhartstonge/argon2"
	"github.com/nsqlite/litebind/sqlitec"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt_hash(text [, cost]). Costs outside bcrypt's range fall back to
// the default cost.
func bcryptHash(args []sqlitec.Value) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errors.New("bcrypt_hash takes 1 or 2 arguments")
	}
	if args[0].IsNull() {
		return nil, nil
	}

	cost := bcrypt.DefaultCost
	if len(args) == 2 && !args[1].IsNull() {
		if c := args[1].Int(); c >= bcrypt.MinCost && c <= bcrypt.MaxCost {
			cost = c
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(args[0].Text()), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt_hash: %w", err)
	}
	return string(hash), nil
}

func bcryptCheck(args []sqlitec.Value) (any, error) {
	if args[0].IsNull() || args[1].IsNull() {
		return nil, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(args[1].Text()), []byte(args[0].Text()))
	return err == nil, nil
}

func argon2Hash(args []sqlitec.Value) (any, error) {
	if args[0].IsNull() {
		return nil, nil
	}
	argon := argon2.DefaultConfig()
	hash, err := argon.HashEncoded([]byte(args[0].Text()))
	if err != nil {
		return nil, fmt.Errorf("argon2_hash: %w", err)
	}
	return string(hash), nil
}

// argon2_check returns 0 for malformed hashes instead of failing the
// statement.
func argon2Check(args []sqlitec.Value) (any, error) {
	if args[0].IsNull() || args[1].IsNull() {
		return nil, nil
	}
	ok, err := argon2.VerifyEncoded([]byte(args[0].Text()), []byte(args[1].Text()))
	if err != nil {
		return false, nil
	}
	return ok, nil
}
