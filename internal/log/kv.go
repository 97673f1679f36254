package log

import "sort"

// KV is a set of key-value pairs attached to a log record.
type KV map[string]any

// Namespaces used across the tools.
const (
	NsShell  = "shell"
	NsBench  = "bench"
	NsDriver = "driver"
)

// kvToArgs flattens the first KV into slog arguments sorted by key. Extra
// KVs are ignored.
func kvToArgs(keyVals ...KV) []any {
	if len(keyVals) == 0 {
		return []any{}
	}

	kv := keyVals[0]
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(kv)*2)
	for _, k := range keys {
		args = append(args, k, kv[k])
	}
	return args
}

func kvToArgsNs(namespace string, keyVals ...KV) []any {
	return append([]any{"ns", namespace}, kvToArgs(keyVals...)...)
}
