package canvas

import (
	"testing"

	"github.com/paintmesh/server/internal/brush"
)

func TestRegistryGetCreatesOnDemand(t *testing.T) {
	reg := NewRegistry(10, 10, brush.NewCatalog())
	if _, ok := reg.Lookup(5); ok {
		t.Fatal("expected no room before first Get")
	}
	rm := reg.Get(5)
	if rm.ID != 5 {
		t.Fatalf("expected created room id 5, got %d", rm.ID)
	}
	again := reg.Get(5)
	if again != rm {
		t.Fatal("Get must return the same room instance on repeat calls")
	}
}

func TestRegistryPutInstallsExistingRoom(t *testing.T) {
	reg := NewRegistry(10, 10, brush.NewCatalog())
	rm := NewRoom(42, 10, 10, brush.NewCatalog())
	reg.Put(42, rm)
	got, ok := reg.Lookup(42)
	if !ok || got != rm {
		t.Fatal("expected Put to install the exact room instance")
	}
}

func TestRegistryAllReturnsSnapshot(t *testing.T) {
	reg := NewRegistry(10, 10, brush.NewCatalog())
	reg.Get(1)
	reg.Get(2)
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(all))
	}
	reg.Get(3)
	if len(all) != 2 {
		t.Fatal("All() must return a point-in-time snapshot, not a live view")
	}
}

func TestRegistryDimensions(t *testing.T) {
	reg := NewRegistry(123, 456, brush.NewCatalog())
	w, h := reg.Dimensions()
	if w != 123 || h != 456 {
		t.Fatalf("expected (123,456), got (%d,%d)", w, h)
	}
}
