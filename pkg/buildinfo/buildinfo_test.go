package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get("playerlink")

	assert.Equal(t, "playerlink", info.ServiceName)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestString(t *testing.T) {
	orig := struct{ v, c, b string }{Version, Commit, BuildTime}
	defer func() {
		Version, Commit, BuildTime = orig.v, orig.c, orig.b
	}()

	Version = "v0.3.0"
	Commit = "4f2a91c"
	BuildTime = "2026-08-29T10:30:00Z"

	assert.Equal(t, "v0.3.0 (4f2a91c, 2026-08-29T10:30:00Z)", String())
}
