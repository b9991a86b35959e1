// Package listsync reconciles a client-held collection with confirmed server
// mutations, avoiding a refetch round-trip. Both operations are pure: they
// take an input slice and return a new one, never touching the original.
// Callers invoke them only after the server has confirmed the mutation;
// failure handling stays entirely at the call site.
package listsync

// Identifiable is anything with a stable join key.
type Identifiable interface {
	Key() string
}

// Patch is the set of fields to overlay onto a matched item.
type Patch[T any] func(T) T

// PatchItem replaces the element whose key matches id with apply(element),
// leaving every other element untouched. An unknown id is a benign no-op:
// the item may have been removed concurrently, and the collection is
// returned unchanged.
func PatchItem[T Identifiable](items []T, id string, apply Patch[T]) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i, item := range out {
		if item.Key() == id {
			out[i] = apply(item)
			break
		}
	}
	return out
}

// RemoveItem returns a new collection excluding the element with the
// matching key. Absent ids are a no-op.
func RemoveItem[T Identifiable](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.Key() == id {
			continue
		}
		out = append(out, item)
	}
	return out
}
