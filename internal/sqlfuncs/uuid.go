package sqlfuncs

import (
	"github.com/google/uuid"
	"github.com/nsqlite/litebind/sqlitec"
)

func uuidV4([]sqlitec.Value) (any, error) {
	return uuid.NewString(), nil
}

func uuidV7([]sqlitec.Value) (any, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return id.String(), nil
}
