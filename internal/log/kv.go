package log

import "sort"

// Namespaces used across sealite so that every log line can be traced back
// to the component that emitted it.
const (
	NsDatabase = "database"
	NsCipher   = "cipher"
	NsShell    = "shell"
	NsCheck    = "check"
	NsBench    = "bench"
)

// KV is a set of key-value pairs attached to a log line.
type KV map[string]any

// kvToArgs flattens the first KV into slog arguments. Keys are sorted so the
// output is stable.
func kvToArgs(keyVals ...KV) []any {
	args := []any{}
	if len(keyVals) == 0 {
		return args
	}

	kv := keyVals[0]
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k, kv[k])
	}
	return args
}

// kvToArgsNs works like kvToArgs but prepends the namespace under the "ns"
// key.
func kvToArgsNs(namespace string, keyVals ...KV) []any {
	return append([]any{"ns", namespace}, kvToArgs(keyVals...)...)
}
