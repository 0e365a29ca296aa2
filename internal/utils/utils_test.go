package utils

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		assert.Equal(t, want, Number(in))
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "123.45", Rate(123.45))
	assert.Equal(t, "12.34K", Rate(12340))
	assert.Equal(t, "12.34M", Rate(12340000))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "512B", Bytes(512))
	assert.Equal(t, "1.50KiB", Bytes(1536))
	assert.Equal(t, "3.00MiB", Bytes(3*1024*1024))
}

func TestDisabledProgress(t *testing.T) {
	p := newProgress(io.Discard, 3, false)
	assert.False(t, p.Enabled())

	p.Increment("a.dat")
	p.Increment("b.dat")
	assert.Equal(t, 2, p.Current())
	assert.Equal(t, "b.dat", p.Description())

	p.Finish()
	p.Finish()
}

func TestEnabledProgress(t *testing.T) {
	p := newProgress(io.Discard, 2, true)
	assert.True(t, p.Enabled())

	p.Increment("first")
	p.Update(2, "a-very-long-description-that-gets-cut")
	p.Finish()
	assert.Equal(t, 2, p.Current())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefgh..", truncate("abcdefghijkl", 10))
}
