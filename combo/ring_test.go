package combo

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRingBufferFrom[E any](s []E) *ringBuffer[E] {
	size := 1
	for size < len(s) {
		size <<= 1
	}
	rb := newRingBuffer[E](size)
	copy(rb.s, s)
	rb.w = uint(len(s))
	return rb
}

func TestNewRingBuffer(t *testing.T) {
	size := 8
	rb := newRingBuffer[int](size)

	assert.NotNil(t, rb)
	assert.Equal(t, size, len(rb.s))
	assert.Equal(t, uint(0), rb.r)
	assert.Equal(t, uint(0), rb.w)
}

func TestNewRingBuffer_PanicWithInvalidSize(t *testing.T) {
	assert.Panics(t, func() { newRingBuffer[int](0) }, "expected panic with size 0")
	assert.Panics(t, func() { newRingBuffer[int](3) }, "expected panic with non-power of 2 size")
}

func TestRingBuffer_PushBackAndGet(t *testing.T) {
	rb := newRingBuffer[int](2)
	rb.PushBack(1)
	rb.PushBack(2)
	assert.Equal(t, 2, rb.Len())
	assert.Equal(t, 1, rb.Get(0))
	assert.Equal(t, 2, rb.Get(1))

	// grows past capacity
	rb.PushBack(3)
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []int{1, 2, 3}, rb.Slice())
}

func TestRingBuffer_RemoveBefore(t *testing.T) {
	rb := newRingBufferFrom([]int{1, 2, 3, 4})
	rb.RemoveBefore(2)
	assert.Equal(t, 2, rb.Len())
	assert.Equal(t, []int{3, 4}, rb.Slice())

	rb.PushBack(5)
	assert.Equal(t, []int{3, 4, 5}, rb.Slice())
}

func TestRingBuffer_RemoveBefore_OutOfRange(t *testing.T) {
	rb := newRingBufferFrom([]int{1, 2})
	assert.Panics(t, func() { rb.RemoveBefore(3) })
	assert.Panics(t, func() { rb.RemoveBefore(-1) })
}

func TestRingBuffer_Set(t *testing.T) {
	rb := newRingBufferFrom([]int{1, 2, 3})
	rb.Set(1, 9)
	assert.Equal(t, []int{1, 9, 3}, rb.Slice())
}

func TestRingBuffer_Reset(t *testing.T) {
	rb := newRingBufferFrom([]int{1, 2, 3})
	rb.Reset()
	assert.Equal(t, 0, rb.Len())
	rb.PushBack(4)
	assert.Equal(t, []int{4}, rb.Slice())
}

func TestRingBuffer_WrapAround(t *testing.T) {
	rb := newRingBuffer[int](4)
	rb.PushBack(1)
	rb.PushBack(2)
	rb.PushBack(3)
	rb.RemoveBefore(2) // r=2, w=3
	rb.PushBack(4)
	rb.PushBack(5) // wraps: w would be 5, mask 1
	assert.Equal(t, []int{3, 4, 5}, rb.Slice())
}

func FuzzRingBuffer_PushBackRemoveBefore(f *testing.F) {
	f.Add(int64(1))
	f.Add(int64(2))
	f.Add(int64(-23434245))

	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		rb := newRingBuffer[int](1 << 4)

		var model []int
		for i := 0; i < 1<<10; i++ {
			v := r.Int()
			rb.PushBack(v)
			model = append(model, v)

			if r.Intn(4) == 0 && len(model) > 0 {
				n := r.Intn(len(model) + 1)
				rb.RemoveBefore(n)
				model = model[n:]
			}

			if fmt.Sprint(rb.Slice()) != fmt.Sprint(model) {
				t.Fatalf("iter %d: got %v, want %v", i, rb.Slice(), model)
			}
		}
	})
}
