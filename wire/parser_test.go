package wire_test

import (
	"bytes"
	"testing"

	"github.com/chwellgo/netcore/wire"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		cmd  uint16
		body []byte
	}{
		{1, []byte("hello")},
		{2, nil},
		{0xffff, make([]byte, wire.MaxBodyLen)},
	}
	for _, tt := range tests {
		encoded, err := wire.Encode(tt.cmd, tt.body)
		if err != nil {
			t.Fatalf("encode(%d): %v", tt.cmd, err)
		}
		if len(encoded) != 4+len(tt.body) {
			t.Fatalf("encoded length = %d, want %d", len(encoded), 4+len(tt.body))
		}
		var p wire.Parser
		frames := p.Feed(encoded)
		if len(frames) != 1 {
			t.Fatalf("got %d frames, want 1", len(frames))
		}
		if frames[0].Cmd != tt.cmd || !bytes.Equal(frames[0].Body, tt.body) {
			t.Fatalf("decode(encode(%d, %q)) = (%d, %q)", tt.cmd, tt.body, frames[0].Cmd, frames[0].Body)
		}
		if p.Buffered() != 0 {
			t.Fatalf("parser retained %d bytes after full decode", p.Buffered())
		}
	}
}

func TestEncodeRejectsOversizeBody(t *testing.T) {
	if _, err := wire.Encode(1, make([]byte, wire.MaxBodyLen+1)); err != wire.ErrBodyTooLarge {
		t.Fatalf("got err=%v, want ErrBodyTooLarge", err)
	}
}

// TestFragmentedDecode mirrors spec.md §8 scenario 1: two frames (13 bytes in
// all) split across three chunks of length 3, 5, 5.
func TestFragmentedDecode(t *testing.T) {
	f1, _ := wire.Encode(1, []byte("hello")) // 4+5 = 9 bytes
	f2, _ := wire.Encode(2, nil)              // 4 bytes
	whole := append(append([]byte{}, f1...), f2...)
	if len(whole) != 13 {
		t.Fatalf("setup: combined length = %d, want 13", len(whole))
	}

	chunks := [][]byte{whole[0:3], whole[3:8], whole[8:13]}
	var p wire.Parser
	var got []wire.Frame
	for _, c := range chunks {
		got = append(got, p.Feed(c)...)
	}

	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if got[0].Cmd != 1 || string(got[0].Body) != "hello" {
		t.Fatalf("frame 0 = %+v", got[0])
	}
	if got[1].Cmd != 2 || len(got[1].Body) != 0 {
		t.Fatalf("frame 1 = %+v", got[1])
	}
	if p.Buffered() != 0 {
		t.Fatalf("residual buffer = %d bytes, want 0", p.Buffered())
	}
}

// TestChunkingInvariant: feeding the same byte stream in any partitioning
// yields the same frame sequence as feeding it whole (spec.md §8 invariant 1).
func TestChunkingInvariant(t *testing.T) {
	f1, _ := wire.Encode(7, []byte("alpha"))
	f2, _ := wire.Encode(8, []byte("beta-body"))
	f3, _ := wire.Encode(9, []byte{})
	whole := append(append(append([]byte{}, f1...), f2...), f3...)

	var whole_p wire.Parser
	want := whole_p.Feed(whole)

	partitionings := [][]int{
		{1, 1, 1, 1, 1},
		{len(whole)},
		{5, 5, 5, len(whole) - 15},
	}
	for _, sizes := range partitionings {
		var p wire.Parser
		var got []wire.Frame
		off := 0
		for _, sz := range sizes {
			if off >= len(whole) {
				break
			}
			end := off + sz
			if end > len(whole) {
				end = len(whole)
			}
			got = append(got, p.Feed(whole[off:end])...)
			off = end
		}
		if off < len(whole) {
			got = append(got, p.Feed(whole[off:])...)
		}
		if len(got) != len(want) {
			t.Fatalf("partitioning %v: got %d frames, want %d", sizes, len(got), len(want))
		}
		for i := range got {
			if got[i].Cmd != want[i].Cmd || !bytes.Equal(got[i].Body, want[i].Body) {
				t.Fatalf("partitioning %v: frame %d = %+v, want %+v", sizes, i, got[i], want[i])
			}
		}
	}
}

func TestReset(t *testing.T) {
	var p wire.Parser
	p.Feed([]byte{0, 1, 0, 5, 'h', 'e'})
	if p.Buffered() == 0 {
		t.Fatal("setup: expected buffered partial frame")
	}
	p.Reset()
	if p.Buffered() != 0 {
		t.Fatalf("buffered = %d after reset, want 0", p.Buffered())
	}
}

func TestLengthPrefixedRoundTrip(t *testing.T) {
	msg := wire.LPEncode([]byte("payload"))
	var p wire.LPParser
	got := p.Feed(msg)
	if len(got) != 1 || string(got[0]) != "payload" {
		t.Fatalf("got %v", got)
	}
}
