package canvas

import (
	"bytes"
	"sync"
	"testing"

	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/wire"
)

// recorder is a minimal Subscriber that captures everything written to it,
// standing in for a *net.TCPConn in tests.
type recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *recorder) frames() []*wire.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*wire.Frame
	data := r.buf.Bytes()
	for len(data) >= wire.FrameSize {
		f, err := wire.DecodeFrame(data[:wire.FrameSize])
		if err != nil {
			break
		}
		out = append(out, f)
		data = data[wire.FrameSize:]
	}
	return out
}

func newTestRoom() *Room {
	return NewRoom(1, 64, 64, brush.NewCatalog())
}

func TestRoomJoinAssignsSmallestFreeUID(t *testing.T) {
	r := newTestRoom()
	a, b, c := &recorder{}, &recorder{}, &recorder{}

	uidA, _, err := r.Join(a, "alice", nil)
	if err != nil || uidA != 1 {
		t.Fatalf("expected first join to get uid 1, got %d err=%v", uidA, err)
	}
	uidB, _, err := r.Join(b, "bob", nil)
	if err != nil || uidB != 2 {
		t.Fatalf("expected second join to get uid 2, got %d err=%v", uidB, err)
	}

	r.Leave(a)
	// S7: the freed uid 1 must be reassigned to the next joiner.
	uidC, _, err := r.Join(c, "carol", nil)
	if err != nil || uidC != 1 {
		t.Fatalf("expected reused uid 1 after leave, got %d err=%v", uidC, err)
	}
}

func TestRoomJoinExhaustionReturnsErrNoSpace(t *testing.T) {
	r := newTestRoom()
	for i := 0; i < MaxRoomUID; i++ {
		if _, _, err := r.Join(&recorder{}, "u", nil); err != nil {
			t.Fatalf("unexpected error filling room: %v", err)
		}
	}
	if _, _, err := r.Join(&recorder{}, "overflow", nil); err != ErrNoSpace {
		t.Fatalf("expected ErrNoSpace once all 255 uids are taken, got %v", err)
	}
}

// TestAddLayerCapacityReached mirrors scenario S6: a room already at
// MaxLayers rejects a further AddLayer.
func TestAddLayerCapacityReached(t *testing.T) {
	r := newTestRoom()
	for len(r.layers) < MaxLayers {
		if _, err := r.AddLayer(0); err != nil {
			t.Fatalf("unexpected error growing to capacity: %v", err)
		}
	}
	if _, err := r.AddLayer(0); err != ErrCapacity {
		t.Fatalf("expected ErrCapacity at MaxLayers, got %v", err)
	}
	if r.LayerCount() != MaxLayers {
		t.Fatalf("expected layer count to stay at %d, got %d", MaxLayers, r.LayerCount())
	}
}

func TestAddLayerBroadcastsToAllSubscribersIncludingSender(t *testing.T) {
	r := newTestRoom()
	a, b := &recorder{}, &recorder{}
	r.Join(a, "alice", nil)
	r.Join(b, "bob", nil)

	idx, err := r.AddLayer(0)
	if err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}

	for name, rec := range map[string]*recorder{"a": a, "b": b} {
		frames := rec.frames()
		if len(frames) != 1 {
			t.Fatalf("%s: expected exactly one broadcast frame, got %d", name, len(frames))
		}
		if frames[0].Type != wire.MsgLayerAdd {
			t.Fatalf("%s: expected MsgLayerAdd, got %v", name, frames[0].Type)
		}
		if int(frames[0].LayerID) != idx {
			t.Fatalf("%s: expected insertion index %d, got %d", name, idx, frames[0].LayerID)
		}
	}
}

func TestDeleteLayerNoopBelowTwoLayers(t *testing.T) {
	r := newTestRoom()
	a := &recorder{}
	r.Join(a, "alice", nil)

	// r starts with paper + 1 drawable layer; deleting the only drawable
	// layer would leave just the paper layer, violating the invariant.
	if err := r.DeleteLayer(1); err != nil {
		t.Fatalf("expected nil (silent no-op), got error %v", err)
	}
	if r.LayerCount() != 2 {
		t.Fatalf("expected layer count unchanged at 2, got %d", r.LayerCount())
	}
	if len(a.frames()) != 0 {
		t.Fatal("a no-op deletion must not broadcast")
	}
}

func TestDeleteLayerRejectsPaperLayer(t *testing.T) {
	r := newTestRoom()
	r.AddLayer(0) // now 3 layers, deletion below would otherwise be legal
	if err := r.DeleteLayer(paperIndex); err != nil {
		t.Fatalf("expected nil (silent no-op) deleting the paper layer, got %v", err)
	}
	if r.LayerCount() != 3 {
		t.Fatalf("paper layer deletion must not change layer count, got %d", r.LayerCount())
	}
}

func TestReplaceLayerBroadcastsToOthersOnly(t *testing.T) {
	r := newTestRoom()
	sender, other := &recorder{}, &recorder{}
	r.Join(sender, "s", nil)
	r.Join(other, "o", nil)

	raw := make([]byte, 64*64*4)
	if err := r.ReplaceLayer(sender, 1, raw); err != nil {
		t.Fatalf("ReplaceLayer failed: %v", err)
	}
	if len(sender.frames()) != 0 {
		t.Fatal("the sender must not receive its own LAYER_SYNC echo")
	}
	frames := other.frames()
	if len(frames) == 0 || frames[0].Type != wire.MsgLayerSync {
		t.Fatalf("expected a MsgLayerSync header for the other subscriber, got %v", frames)
	}
	other.mu.Lock()
	rest := append([]byte(nil), other.buf.Bytes()[wire.FrameSize:]...)
	other.mu.Unlock()
	if !bytes.Equal(rest, raw) {
		t.Fatalf("expected exactly the %d raw layer bytes after the header, got %d bytes", len(raw), len(rest))
	}
}

func TestBroadcastSignatureReachesSenderToo(t *testing.T) {
	r := newTestRoom()
	sender := &recorder{}
	r.Join(sender, "s", nil)

	sig := bytes.Repeat([]byte{0xAB}, 32)
	u, err := r.BroadcastSignature(sender, sig)
	if err != nil {
		t.Fatalf("BroadcastSignature failed: %v", err)
	}
	if !bytes.Equal(u.Signature, sig) {
		t.Fatal("signature was not stored on the user record")
	}
	frames := sender.frames()
	if len(frames) != 1 || frames[0].Type != wire.MsgSignature {
		t.Fatalf("sender should receive its own signature echo, got %v", frames)
	}
}
