// Package kb holds the ground-station catalog shared by analysis runs.
package kb

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/groundstation-visibility/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventStationAdded EventType = iota
)

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type    EventType
	Station model.Station
}

// Catalog is an in-memory, thread-safe store of stations keyed by name.
type Catalog struct {
	mu sync.RWMutex

	stations map[string]model.Station

	// Subscribers keyed by a never-reused ID; notified in subscription order.
	subs    map[uint64]func(Event)
	nextSub uint64
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		stations: make(map[string]model.Station),
		subs:     make(map[uint64]func(Event)),
	}
}

// AddStation validates and stores s. It returns an error if the name
// already exists.
func (c *Catalog) AddStation(s model.Station) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if _, exists := c.stations[s.Name]; exists {
		c.mu.Unlock()
		return fmt.Errorf("station %q already exists", s.Name)
	}
	c.stations[s.Name] = s
	ids := slices.Sorted(maps.Keys(c.subs))
	subs := make([]func(Event), len(ids))
	for i, id := range ids {
		subs[i] = c.subs[id]
	}
	c.mu.Unlock()

	// Notify outside the lock so subscribers may query the catalog.
	event := Event{Type: EventStationAdded, Station: s}
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// GetStation returns the named station and whether it exists.
func (c *Catalog) GetStation(name string) (model.Station, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stations[name]
	return s, ok
}

// Lookup resolves names in order. Unknown names are reported together.
func (c *Catalog) Lookup(names ...string) ([]model.Station, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Station, 0, len(names))
	var missing []string
	for _, name := range names {
		s, ok := c.stations[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, s)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown station(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// ListStations returns a snapshot of all stations sorted by name.
func (c *Catalog) ListStations() []model.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Station, 0, len(c.stations))
	for _, s := range c.stations {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Len returns the number of stations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stations)
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function; calling it more than once is a no-op.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

type catalogFile struct {
	Stations []stationEntry `yaml:"stations"`
}

type stationEntry struct {
	Name             string  `yaml:"name"`
	Longitude        float64 `yaml:"longitude"`
	Latitude         float64 `yaml:"latitude"`
	Altitude         float64 `yaml:"altitude"`
	MinimumElevation float64 `yaml:"minimum_elevation"`
}

// LoadCatalog decodes a YAML station list:
//
//	stations:
//	  - name: toulouse
//	    longitude: 1.4437
//	    latitude: 43.6043
//	    altitude: 150
//	    minimum_elevation: 5
func LoadCatalog(r io.Reader) (*Catalog, error) {
	c := NewCatalog()
	if err := c.Load(r); err != nil {
		return nil, err
	}
	return c, nil
}

// Load decodes a YAML station list in the LoadCatalog format and adds each
// entry, so subscribers registered beforehand see every station. It stops at
// the first invalid or duplicate entry.
func (c *Catalog) Load(r io.Reader) error {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode station catalog: %w", err)
	}

	for i, e := range file.Stations {
		s := model.Station{
			Name:            e.Name,
			LongitudeDeg:    e.Longitude,
			LatitudeDeg:     e.Latitude,
			AltitudeM:       e.Altitude,
			MinElevationDeg: e.MinimumElevation,
		}
		if err := c.AddStation(s); err != nil {
			return fmt.Errorf("station catalog entry %d: %w", i, err)
		}
	}
	return nil
}
