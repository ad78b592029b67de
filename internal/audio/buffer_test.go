package audio

import (
	"testing"
)

func TestRingBuffer_WriteAndAvailable(t *testing.T) {
	rb := NewRingBuffer(10)

	if written := rb.Write([]byte{1, 2, 3, 4, 5}); written != 5 {
		t.Errorf("Expected to write 5 bytes, got %d", written)
	}
	if rb.Available() != 5 {
		t.Errorf("Expected available 5, got %d", rb.Available())
	}

	if written := rb.Write([]byte{6, 7, 8}); written != 3 {
		t.Errorf("Expected to write 3 bytes, got %d", written)
	}
	if rb.Available() != 8 {
		t.Errorf("Expected available 8, got %d", rb.Available())
	}
}

func TestRingBuffer_WriteOverflowDrops(t *testing.T) {
	rb := NewRingBuffer(5)

	// Capacity is size-1 to keep full and empty distinguishable.
	rb.Write([]byte{1, 2, 3, 4})
	if !rb.IsFull() {
		t.Error("Expected buffer full after writing size-1 bytes")
	}

	if written := rb.Write([]byte{5, 6}); written != 0 {
		t.Errorf("Expected overflow write to drop all bytes, wrote %d", written)
	}
	if rb.Available() != 4 {
		t.Errorf("Expected available 4 after overflow, got %d", rb.Available())
	}
}

func TestRingBuffer_Read(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3, 4, 5})

	out := make([]byte, 3)
	if read := rb.Read(out); read != 3 {
		t.Errorf("Expected to read 3 bytes, got %d", read)
	}
	if out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Errorf("Read wrong data: %v", out)
	}
	if rb.Available() != 2 {
		t.Errorf("Expected available 2 after read, got %d", rb.Available())
	}
}

func TestRingBuffer_ReadEmpty(t *testing.T) {
	rb := NewRingBuffer(10)

	if !rb.IsEmpty() {
		t.Error("Expected new buffer to be empty")
	}
	out := make([]byte, 5)
	if read := rb.Read(out); read != 0 {
		t.Errorf("Expected 0 bytes from empty buffer, got %d", read)
	}
}

func TestRingBuffer_ReadMoreThanAvailable(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3})

	out := make([]byte, 10)
	if read := rb.Read(out); read != 3 {
		t.Errorf("Expected to read 3 bytes, got %d", read)
	}
	if !rb.IsEmpty() {
		t.Error("Expected buffer empty after reading everything")
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3, 4, 5})

	rb.Clear()
	if rb.Available() != 0 {
		t.Errorf("Expected available 0 after clear, got %d", rb.Available())
	}
	if !rb.IsEmpty() {
		t.Error("Expected buffer empty after clear")
	}
}

func TestRingBuffer_WrapAround(t *testing.T) {
	rb := NewRingBuffer(5)
	rb.Write([]byte{1, 2, 3, 4})

	out := make([]byte, 2)
	rb.Read(out)

	rb.Write([]byte{5, 6})
	if rb.Available() != 4 {
		t.Errorf("Expected available 4, got %d", rb.Available())
	}

	out = make([]byte, 4)
	if read := rb.Read(out); read != 4 {
		t.Errorf("Expected to read 4 bytes, got %d", read)
	}
	expected := []byte{3, 4, 5, 6}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("Expected %d at position %d, got %d", expected[i], i, out[i])
		}
	}
}
