package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/modsync/internal/hashing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t)

	content := []byte("sodium-fabric-0.5.3.jar contents")
	digest := hashing.MustSum(hashing.SHA1, content)

	if err := c.Put(hashing.SHA1, digest, content); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := c.Get(hashing.SHA1, digest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(content) {
		t.Errorf("got %q", string(got))
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	_, found, err := c.Get(hashing.SHA512, "abcdef")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("expected cache miss")
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	c := newTestCache(t)

	if _, _, err := c.Get("murmur2", "1234"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
	if err := c.Put("murmur2", "1234", []byte("x")); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestInvalidDigest(t *testing.T) {
	c := newTestCache(t)
	if _, _, err := c.Get(hashing.SHA1, "../../etc/passwd"); err == nil {
		t.Fatal("expected error for digest with path separators")
	}
}

func TestPutWrongDigest(t *testing.T) {
	c := newTestCache(t)
	if err := c.Put(hashing.SHA1, "0000", []byte("content")); err == nil {
		t.Fatal("expected error for digest mismatch")
	}
}

func TestPutIdempotent(t *testing.T) {
	c := newTestCache(t)

	content := []byte("idempotent")
	digest := hashing.MustSum(hashing.SHA512, content)

	if err := c.Put(hashing.SHA512, digest, content); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := c.Put(hashing.SHA512, digest, content); err != nil {
		t.Fatalf("second Put: %v", err)
	}
}

func TestCorruptEntryIsRemoved(t *testing.T) {
	c := newTestCache(t)

	content := []byte("good")
	digest := hashing.MustSum(hashing.SHA1, content)
	if err := c.Put(hashing.SHA1, digest, content); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := filepath.Join(c.Path(), "objects", "sha1", digest[:2], digest)
	if err := os.WriteFile(path, []byte("bad"), 0644); err != nil {
		t.Fatal(err)
	}

	_, found, err := c.Get(hashing.SHA1, digest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("expected miss for corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should have been removed")
	}
}

func TestLookupAndPutAll(t *testing.T) {
	c := newTestCache(t)

	content := []byte("iris.jar")
	hashes := map[string]string{
		hashing.SHA1:   hashing.MustSum(hashing.SHA1, content),
		hashing.SHA512: hashing.MustSum(hashing.SHA512, content),
		"murmur2":      "123456",
	}
	if err := c.PutAll(hashes, content); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if !c.Has(hashing.SHA1, hashes[hashing.SHA1]) || !c.Has(hashing.SHA512, hashes[hashing.SHA512]) {
		t.Fatal("expected both digests to be cached")
	}

	got, ok := c.Lookup(map[string]string{hashing.SHA512: hashes[hashing.SHA512]})
	if !ok || string(got) != "iris.jar" {
		t.Fatalf("Lookup = %q, %v", got, ok)
	}
	if _, ok := c.Lookup(map[string]string{hashing.SHA1: "ffff"}); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestUppercaseDigest(t *testing.T) {
	c := newTestCache(t)
	content := []byte("case")
	digest := strings.ToUpper(hashing.MustSum(hashing.SHA1, content))
	if err := c.Put(hashing.SHA1, digest, content); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, found, _ := c.Get(hashing.SHA1, digest); !found {
		t.Fatal("expected hit for uppercase digest")
	}
}

func TestSize(t *testing.T) {
	c := newTestCache(t)

	size, err := c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Errorf("empty cache size = %d", size)
	}

	content := []byte("12345")
	if err := c.Put(hashing.MD5, hashing.MustSum(hashing.MD5, content), content); err != nil {
		t.Fatal(err)
	}
	size, err = c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := DefaultDir(); got != filepath.Join("/custom/cache", "modsync") {
		t.Errorf("DefaultDir = %q", got)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	if got := DefaultDir(); !strings.Contains(got, "modsync") {
		t.Errorf("DefaultDir = %q, expected modsync in path", got)
	}
}
