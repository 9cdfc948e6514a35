package persistence

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/canvas"
)

// SaveInterval is the periodic persistence tick (spec §4.6).
const SaveInterval = 60 * time.Second

// BackupFunc is invoked with the just-written document bytes, used to
// fan the document out to an optional backing store (spec §4.10). SaveAll
// runs it in its own goroutine, so it never blocks the save loop; a nil
// BackupFunc disables backup.
type BackupFunc func(doc []byte)

// Store drives the periodic and on-demand save loop over a Registry and
// loads a document into one at startup.
type Store struct {
	path     string
	registry *canvas.Registry
	onSave   BackupFunc
	trigger  chan struct{}
}

// NewStore builds a Store that persists registry to path.
func NewStore(path string, registry *canvas.Registry, onSave BackupFunc) *Store {
	return &Store{
		path:     path,
		registry: registry,
		onSave:   onSave,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an out-of-band save, as issued by a SAVE message
// (spec §4.4). Non-blocking: a pending trigger is coalesced.
func (s *Store) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks, saving every SaveInterval or whenever Trigger is called,
// until stop is closed.
func (s *Store) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.SaveAll()
		case <-s.trigger:
			s.SaveAll()
		}
	}
}

// SaveAll writes one document covering every room in the registry, doing
// nothing if no room is dirty (spec §4.6, S5). Clean layers reuse their
// cached serialized form; only dirty rooms' dirty flags are cleared.
func (s *Store) SaveAll() {
	rooms := s.registry.All()

	anyDirty := false
	for _, rm := range rooms {
		if rm.Dirty() {
			anyDirty = true
			break
		}
	}
	if !anyDirty {
		return
	}

	w, h := s.registry.Dimensions()
	doc := Document{Version: DocumentVersion, Width: w, Height: h}

	ids := make([]int, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		rm := rooms[id]
		layers := rm.Layers()
		entry := CanvasEntry{ID: id, LayerCount: len(layers) - 1}
		for i := 1; i < len(layers); i++ {
			entry.Layers = append(entry.Layers, LayerEntry{
				Index: i,
				Data:  string(layers[i].Serialize()),
			})
		}
		doc.Canvases = append(doc.Canvases, entry)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		log.Printf("persistence: encode failed: %v", err)
		return
	}

	if err := writeFileAtomic(s.path, out); err != nil {
		log.Printf("persistence: write failed, rooms remain dirty: %v", err)
		return
	}

	for _, id := range ids {
		rooms[id].ClearDirty()
	}

	if s.onSave != nil {
		go s.onSave(out)
	}
}

// LoadAll reads the document at path, if it exists, and installs a Room
// per canvas entry into registry using brushes as the catalog for every
// restored room (spec §4.6 loading). A missing file is not an error.
func LoadAll(path string, registry *canvas.Registry, brushes *brush.Catalog) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	w, h := registry.Dimensions()
	for _, ce := range doc.Canvases {
		layers := make([]*canvas.Layer, ce.LayerCount+1)
		layers[0] = canvas.NewLayer(w, h, true)
		for i := 1; i <= ce.LayerCount; i++ {
			layers[i] = canvas.NewLayer(w, h, false)
		}
		for _, le := range ce.Layers {
			if le.Index < 1 || le.Index > ce.LayerCount {
				continue
			}
			decoded, err := canvas.DecodeLayerPixels([]byte(le.Data), doc.Width, doc.Height, w, h)
			if err != nil {
				log.Printf("persistence: canvas %d layer %d decode failed: %v", ce.ID, le.Index, err)
				continue
			}
			layers[le.Index] = decoded
		}
		registry.Put(ce.ID, canvas.NewRoomFromLayers(ce.ID, w, h, layers, brushes))
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Clean(path))
}
