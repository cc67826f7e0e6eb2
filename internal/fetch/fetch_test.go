package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/packerr"
)

func serve(t *testing.T, content []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write(content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBytesSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := &Downloader{UserAgent: "alex/skyblock (alex@example.com)"}
	data, err := d.Bytes(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("data = %q", data)
	}
	if ua != "alex/skyblock (alex@example.com)" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestBytesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := (&Downloader{}).Bytes(context.Background(), srv.URL+"/gone.jar")
	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(ferr.Error(), "HTTP 404") {
		t.Errorf("unexpected error: %v", ferr)
	}
}

func TestBytesMaxSize(t *testing.T) {
	srv := serve(t, []byte(strings.Repeat("x", 100)), nil)

	_, err := (&Downloader{MaxSize: 10}).Bytes(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds max size") {
		t.Errorf("expected max size error, got %v", err)
	}
}

func TestBytesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := (&Downloader{Timeout: 50 * time.Millisecond}).Bytes(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFileVerifiesAndCaches(t *testing.T) {
	content := []byte("sodium")
	var hits atomic.Int32
	srv := serve(t, content, &hits)

	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := &Downloader{Cache: c}
	f := entity.File{
		FileName: "sodium.jar",
		URL:      srv.URL + "/sodium.jar",
		Hashes:   map[string]string{hashing.SHA1: hashing.MustSum(hashing.SHA1, content)},
	}

	for range 2 {
		data, err := d.File(context.Background(), f)
		if err != nil {
			t.Fatalf("File: %v", err)
		}
		if string(data) != "sodium" {
			t.Errorf("data = %q", data)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFileHashMismatch(t *testing.T) {
	srv := serve(t, []byte("tampered"), nil)
	f := entity.File{
		FileName: "sodium.jar",
		URL:      srv.URL,
		Hashes:   map[string]string{hashing.SHA1: hashing.MustSum(hashing.SHA1, []byte("sodium"))},
	}

	data, err := (&Downloader{}).File(context.Background(), f)
	if !errors.Is(err, packerr.ErrHashMismatch) {
		t.Errorf("expected HashMismatch, got %v", err)
	}
	if data != nil {
		t.Error("mismatched content must not be returned")
	}
}

func TestFileWithoutHashesWarns(t *testing.T) {
	srv := serve(t, []byte("data"), nil)

	data, err := (&Downloader{}).File(context.Background(), entity.File{FileName: "x.jar", URL: srv.URL})
	if !errors.Is(err, packerr.ErrNoHashes) {
		t.Fatalf("expected NoHashes, got %v", err)
	}
	if packerr.IsFatal(err) {
		t.Error("NoHashes must not be fatal")
	}
	if string(data) != "data" {
		t.Errorf("data = %q", data)
	}
}

func TestFileWithoutURL(t *testing.T) {
	_, err := (&Downloader{}).File(context.Background(), entity.File{FileName: "x.jar"})
	if !errors.Is(err, packerr.ErrDownloadFailed) {
		t.Errorf("expected DownloadFailed, got %v", err)
	}
}
