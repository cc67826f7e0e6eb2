package packerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsKindSentinel(t *testing.T) {
	err := HashMismatch("mods/a.jar", "sha1", "aa", "bb")
	assert.ErrorIs(t, err, ErrHashMismatch)
	assert.NotErrorIs(t, err, ErrDownloadFailed)
	assert.Equal(t, "mods/a.jar: hash mismatch: sha1 expected aa, got bb", err.Error())
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := CouldNotRead("a.txt", fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrCouldNotRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"default error", DownloadFailed("https://x", nil), SeverityError},
		{"missing hash", NoHashes("a.jar"), SeverityWarning},
		{"already added", AlreadyAdded("sodium"), SeverityNotice},
		{"already exists", AlreadyExists("out/a.jar"), SeverityNotice},
		{"wrapped", fmt.Errorf("outer: %w", NoHashes("a.jar")), SeverityWarning},
		{"plain", errors.New("boom"), SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityOf(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(NoHashes("a")))
	assert.True(t, IsFatal(NotRedistributable("a")))
	assert.Equal(t, "warning", SeverityWarning.String())
}
