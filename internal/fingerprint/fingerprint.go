// Package fingerprint captures the coarse revision state of the source
// namespaces so a build can be skipped when nothing changed since the last
// one.
package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/arcanaland/builderbot/internal/store"
)

// DefaultMarker is where the fingerprint of the last started build lives.
const DefaultMarker = "/builds/last_build.json"

// Fingerprint maps a namespace name to its directory revision.
type Fingerprint map[string]string

// Latest reads the current revision of each namespace root, one store call
// per namespace. A namespace missing from the store is left out.
func Latest(ctx context.Context, s store.RevisionedStore, namespaces ...string) (Fingerprint, error) {
	fp := make(Fingerprint, len(namespaces))
	for _, ns := range namespaces {
		rev, err := s.Revision(ctx, "/"+ns)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s revision: %w", ns, err)
		}
		fp[ns] = rev
	}
	return fp, nil
}

// Last reads the persisted marker. Any failure yields an empty fingerprint,
// which never equals a real one and so forces a build.
func Last(ctx context.Context, s store.RevisionedStore, marker string) Fingerprint {
	data, err := s.Fetch(ctx, marker)
	if err != nil {
		return Fingerprint{}
	}
	var fp Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil || fp == nil {
		return Fingerprint{}
	}
	return fp
}

// Save overwrites the marker with fp.
func (fp Fingerprint) Save(ctx context.Context, s store.RevisionedStore, marker string) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("encoding fingerprint: %w", err)
	}
	if err := s.Put(ctx, marker, data, true); err != nil {
		return fmt.Errorf("saving fingerprint: %w", err)
	}
	return nil
}

// Equal reports whether both fingerprints hold the same namespace tokens.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	return maps.Equal(fp, other)
}

// Diff returns the namespaces whose token differs between fp and other,
// including ones present on only one side.
func (fp Fingerprint) Diff(other Fingerprint) []string {
	var changed []string
	for ns, rev := range fp {
		if other[ns] != rev {
			changed = append(changed, ns)
		}
	}
	for ns := range other {
		if _, ok := fp[ns]; !ok {
			changed = append(changed, ns)
		}
	}
	sort.Strings(changed)
	return changed
}
