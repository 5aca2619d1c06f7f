// Package build tests version helpers.
// Related: internal/build/version.go
// Tags: build, version

package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCommit(t *testing.T) {
	old := Commit
	defer func() { Commit = old }()

	tests := map[string]struct {
		commit string
		want   string
	}{
		"full hash": {commit: "0123456789abcdef", want: "0123456"},
		"short":     {commit: "abc", want: "abc"},
		"unknown":   {commit: "unknown", want: "unknown"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			Commit = tt.commit
			assert.Equal(t, tt.want, ShortCommit())
		})
	}
}

func TestIsDevBuild(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "dev"
	assert.True(t, IsDevBuild())
	Version = "1.0.0"
	assert.False(t, IsDevBuild())
}
