package testsupport

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	. "github.com/weberc2/nachofs/pkg/types"
)

// ObjectStoreFake holds snapshot images in memory, one map of keys per
// bucket. The zero value is ready to use.
type ObjectStoreFake struct {
	mutex   sync.Mutex
	buckets map[string]map[string][]byte
}

// Seed stores `data` at `key` directly, skipping PutObject.
func (osf *ObjectStoreFake) Seed(bucket, key string, data []byte) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	osf.bucket(bucket)[key] = data
}

// Object returns the raw bytes stored at `key`, as they would sit in S3.
func (osf *ObjectStoreFake) Object(bucket, key string) ([]byte, bool) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	data, found := osf.buckets[bucket][key]
	return data, found
}

func (osf *ObjectStoreFake) bucket(name string) map[string][]byte {
	if osf.buckets == nil {
		osf.buckets = map[string]map[string][]byte{}
	}
	objects, found := osf.buckets[name]
	if !found {
		objects = map[string][]byte{}
		osf.buckets[name] = objects
	}
	return objects
}

func (osf *ObjectStoreFake) PutObject(
	bucket string,
	key string,
	image io.ReadSeeker,
) error {
	data, err := io.ReadAll(image)
	if err != nil {
		return fmt.Errorf(
			"uploading snapshot `%s` to bucket `%s`: %w",
			key,
			bucket,
			err,
		)
	}
	osf.Seed(bucket, key, data)
	return nil
}

func (osf *ObjectStoreFake) GetObject(
	bucket string,
	key string,
) (io.ReadCloser, error) {
	data, found := osf.Object(bucket, key)
	if !found {
		return nil, &ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

// ListObjects returns matching keys in lexical order, as S3 does.
func (osf *ObjectStoreFake) ListObjects(
	bucket string,
	prefix string,
) ([]string, error) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	var keys []string
	for key := range osf.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (osf *ObjectStoreFake) DeleteObject(bucket, key string) error {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	if _, found := osf.buckets[bucket][key]; !found {
		return &ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	delete(osf.buckets[bucket], key)
	return nil
}
