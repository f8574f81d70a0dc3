package assets

import (
	"io"
	"launchpad/client/s3"
	"launchpad/session"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Upload is a single pending binary upload.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// Batch stages a group of object uploads that must succeed together before
// any database row referencing them is written. On failure the staged objects
// are discarded, so a half-submitted launch never leaves orphans behind.
type Batch struct {
	s    *session.Session
	keys []string
}

func NewBatch(s *session.Session) *Batch {
	return &Batch{s: s}
}

// Stage uploads one object under the given key prefix and records the key for
// a later Discard. Returns the publicly resolvable URL.
func (b *Batch) Stage(prefix string, u Upload) (string, error) {
	key := prefix + "/" + uuid.New().String() + sanitizedExt(u.Filename)
	if err := s3.PutObjectFunc(key, u.Reader, b.s); err != nil {
		return "", err
	}
	b.keys = append(b.keys, key)
	return s3.ObjectURL(key), nil
}

// Discard deletes everything staged so far, best effort.
func (b *Batch) Discard() {
	for _, key := range b.keys {
		if err := s3.DeleteObjectFunc(key, b.s); err != nil {
			logrus.Warnf("discard staged object %s failed: %v", key, err)
		}
	}
	b.keys = nil
}

func (b *Batch) StagedKeys() []string {
	return b.keys
}

func sanitizedExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	return ".png"
}
