package metadata

import (
	"time"

	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/view"
)

// Clock supplies the current time, injected so PrepareCollection's subset
// timestamp is deterministic in tests: the one piece of nondeterminism a
// pure function needs is hidden behind a one-method interface rather than
// called inline.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// PrepareCollection deep-copies v's collection manifest and stamps it for
// export: taco:pit_schema.root.n becomes rootCount, taco:subset_of becomes
// the source collection's id (or "unknown"), and taco:subset_date becomes
// clock's current time in UTC ISO-8601.
func PrepareCollection(v view.View, rootCount int, clock Clock) map[string]any {
	out := deepCopyMap(v.Collection())

	pitSchema, _ := out[plantypes.PitSchemaKey].(map[string]any)
	if pitSchema == nil {
		pitSchema = map[string]any{}
	}
	root, _ := pitSchema["root"].(map[string]any)
	if root == nil {
		root = map[string]any{}
	}
	root["n"] = rootCount
	pitSchema["root"] = root
	out[plantypes.PitSchemaKey] = pitSchema

	subsetOf := "unknown"
	if id, ok := out["id"].(string); ok && id != "" {
		subsetOf = id
	}
	out[plantypes.SubsetOfKey] = subsetOf
	out[plantypes.SubsetDateKey] = clock.Now().UTC().Format(time.RFC3339)
	return out
}

// CopyCollection deep-copies a collection manifest without stamping any of
// the export-only keys; used by plan_zip2folder, which carries a freshly
// loaded archive's manifest through unchanged.
func CopyCollection(m map[string]any) map[string]any {
	return deepCopyMap(m)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return x
	}
}
