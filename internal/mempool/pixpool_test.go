package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClass(t *testing.T) {
	const step = 64 * 1024
	assert.Equal(t, step, sizeClass(1))
	assert.Equal(t, step, sizeClass(step))
	assert.Equal(t, 2*step, sizeClass(step+1))
	assert.Equal(t, 2*step, sizeClass(2*step))
}

func TestGetPix(t *testing.T) {
	buf := GetPix(100)
	assert.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 100)

	big := GetPix(4 * 640 * 480)
	assert.Len(t, big, 4*640*480)
}

func TestGetPixRoundTrip(t *testing.T) {
	buf := GetPix(1000)
	for i := range buf {
		buf[i] = 0xAB
	}
	PutPix(buf)

	again := GetPix(1000)
	assert.Len(t, again, 1000)
	PutPix(again)
}

func TestPutPixNil(t *testing.T) {
	assert.NotPanics(t, func() { PutPix(nil) })
}
