// Package snapshot copies whole disk images to and from an object store.
package snapshot

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	. "github.com/weberc2/nachofs/pkg/types"
)

const keySuffix = ".img.gz"

type Snapshotter struct {
	Store  ObjectStore
	Bucket string
	Prefix string
}

// New wraps `store` so that images are stored compressed.
func New(store ObjectStore, bucket, prefix string) *Snapshotter {
	return &Snapshotter{
		Store:  &GzipObjectStore{store},
		Bucket: bucket,
		Prefix: prefix,
	}
}

// Key derives a unique object key from a human-readable label.
func (s *Snapshotter) Key(label string) string {
	name := slug.Make(label)
	if name == "" {
		name = "snapshot"
	}
	return fmt.Sprintf("%s%s-%s%s", s.Prefix, name, uuid.NewString(), keySuffix)
}

// Push uploads `image` under a new key and returns the key.
func (s *Snapshotter) Push(label string, image io.ReadSeeker) (string, error) {
	key := s.Key(label)
	if err := s.Store.PutObject(s.Bucket, key, image); err != nil {
		return "", fmt.Errorf("pushing snapshot `%s`: %w", label, err)
	}
	log.Printf("pushed snapshot: bucket=%s key=%s", s.Bucket, key)
	return key, nil
}

// Pull writes the image stored at `key` to `w`.
func (s *Snapshotter) Pull(key string, w io.Writer) error {
	body, err := s.Store.GetObject(s.Bucket, key)
	if err != nil {
		return fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	defer body.Close()
	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	return nil
}

// List returns the keys of every snapshot under the prefix, sorted.
func (s *Snapshotter) List() ([]string, error) {
	keys, err := s.Store.ListObjects(s.Bucket, s.Prefix)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	snapshots := keys[:0]
	for _, key := range keys {
		if strings.HasSuffix(key, keySuffix) {
			snapshots = append(snapshots, key)
		}
	}
	sort.Strings(snapshots)
	return snapshots, nil
}

func (s *Snapshotter) Delete(key string) error {
	if err := s.Store.DeleteObject(s.Bucket, key); err != nil {
		return fmt.Errorf("deleting snapshot `%s`: %w", key, err)
	}
	return nil
}
