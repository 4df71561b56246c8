// Package presets wires preset persistence: the blob-backed store, the SQL
// backends and the conversion between presets and filter state.
package presets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"phylotree/internal/blob"
	"phylotree/pkg/preset"
)

const (
	keyPrefix = "presets/"
	keySuffix = ".json"
)

var _ preset.Store = (*BlobStore)(nil)

// BlobStore keeps one JSON object per preset at presets/<name>.json.
type BlobStore struct {
	objects blob.Store
}

// NewBlobStore wraps objects.
func NewBlobStore(objects blob.Store) *BlobStore {
	return &BlobStore{objects: objects}
}

// Key returns the object key for a preset name.
func Key(name string) string { return keyPrefix + name + keySuffix }

// Save replaces any existing object for the name. Blob writes are
// create-only, so the old object is removed first and written back if the
// new one cannot be stored.
func (s *BlobStore) Save(ctx context.Context, p preset.Preset) error {
	p, err := p.Normalize()
	if err != nil {
		return err
	}
	payload, err := preset.Encode(p)
	if err != nil {
		return fmt.Errorf("encode preset %s: %w", p.Name, err)
	}
	key := Key(p.Name)
	previous, err := s.read(ctx, key)
	if err != nil && !errors.Is(err, blob.ErrNotFound) {
		return fmt.Errorf("read preset %s: %w", p.Name, err)
	}
	if previous != nil {
		if _, err := s.objects.Delete(ctx, key); err != nil {
			return fmt.Errorf("replace preset %s: %w", p.Name, err)
		}
	}
	if err := s.put(ctx, key, p.Name, payload); err != nil {
		if previous != nil {
			if rerr := s.put(ctx, key, p.Name, previous); rerr != nil {
				return fmt.Errorf("put preset %s: %w (restore failed: %v)", p.Name, err, rerr)
			}
		}
		return fmt.Errorf("put preset %s: %w", p.Name, err)
	}
	return nil
}

func (s *BlobStore) put(ctx context.Context, key, name string, payload []byte) error {
	_, err := s.objects.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"preset": name},
	})
	return err
}

func (s *BlobStore) read(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Load returns preset.ErrNotFound when no object exists for name.
func (s *BlobStore) Load(ctx context.Context, name string) (preset.Preset, error) {
	name, err := preset.ValidateName(name)
	if err != nil {
		return preset.Preset{}, err
	}
	data, err := s.read(ctx, Key(name))
	if errors.Is(err, blob.ErrNotFound) {
		return preset.Preset{}, fmt.Errorf("%w: %s", preset.ErrNotFound, name)
	}
	if err != nil {
		return preset.Preset{}, fmt.Errorf("read preset %s: %w", name, err)
	}
	return preset.Decode(name, data)
}

// Delete reports whether the preset existed.
func (s *BlobStore) Delete(ctx context.Context, name string) (bool, error) {
	name, err := preset.ValidateName(name)
	if err != nil {
		return false, err
	}
	existed, err := s.objects.Delete(ctx, Key(name))
	if err != nil {
		return false, fmt.Errorf("delete preset %s: %w", name, err)
	}
	return existed, nil
}

// List returns preset names in ascending order. Objects under the prefix
// that are not preset documents are ignored.
func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	infos, err := s.objects.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		name, ok := strings.CutPrefix(info.Key, keyPrefix)
		if !ok {
			continue
		}
		name, ok = strings.CutSuffix(name, keySuffix)
		if !ok || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op; the blob store is owned by the caller.
func (s *BlobStore) Close() error { return nil }
