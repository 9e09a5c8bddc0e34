// Package testutil provides a configurable fake of the people API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/people"
)

// MockSWAPI serves JSON resources keyed by path.
// Unknown paths answer 404 with {"detail": "Not found"} like the real API.
type MockSWAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	resources map[string]string
	statuses  map[string]int
	delays    map[string]time.Duration
	requests  map[string]int
	total     int
}

// NewMockSWAPI starts a new mock server.
func NewMockSWAPI() *MockSWAPI {
	mock := &MockSWAPI{
		resources: make(map[string]string),
		statuses:  make(map[string]int),
		delays:    make(map[string]time.Duration),
		requests:  make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the API root of the mock server.
func (m *MockSWAPI) URL() string {
	return m.server.URL
}

// Locator returns the absolute locator for path.
func (m *MockSWAPI) Locator(path string) string {
	return m.server.URL + "/" + normalize(path) + "/"
}

// Close shuts down the mock server.
func (m *MockSWAPI) Close() {
	m.server.Close()
}

// SetResource serves body with 200 at path.
func (m *MockSWAPI) SetResource(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[normalize(path)] = body
}

// SetJSON marshals v and serves it at path.
func (m *MockSWAPI) SetJSON(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal %s: %v", path, err))
	}
	m.SetResource(path, string(data))
}

// SetStatus forces a status code for path regardless of any resource.
func (m *MockSWAPI) SetStatus(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[normalize(path)] = status
}

// SetDelay makes path answer after d.
func (m *MockSWAPI) SetDelay(path string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[normalize(path)] = d
}

// GetRequestCount returns the number of requests served.
func (m *MockSWAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// RequestsFor returns how often path was requested.
func (m *MockSWAPI) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[normalize(path)]
}

func (m *MockSWAPI) handle(w http.ResponseWriter, r *http.Request) {
	path := normalize(r.URL.Path)

	m.mu.Lock()
	m.total++
	m.requests[path]++
	body, found := m.resources[path]
	status, forced := m.statuses[path]
	delay := m.delays[path]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case forced:
		w.WriteHeader(status)
		if body != "" {
			w.Write([]byte(body))
		}
	case found:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found"}`))
	}
}

func normalize(path string) string {
	return strings.Trim(path, "/")
}

// Galaxy sizes used by SeedGalaxy.
const (
	galaxyPlanets   = 5
	galaxyFilms     = 6
	galaxySpecies   = 4
	galaxyStarships = 7
	galaxyVehicles  = 3
)

// SeedGalaxy serves people [lo, hi) plus the planets, films, species,
// starships and vehicles they reference, and returns the flattened person
// the pipeline is expected to produce for every id.
func (m *MockSWAPI) SeedGalaxy(lo, hi int) map[int]people.Person {
	for i := 1; i <= galaxyPlanets; i++ {
		m.SetJSON(fmt.Sprintf("planets/%d", i), map[string]any{"name": fmt.Sprintf("Planet %d", i)})
	}
	for i := 1; i <= galaxyFilms; i++ {
		m.SetJSON(fmt.Sprintf("films/%d", i), map[string]any{"title": fmt.Sprintf("Episode %d", i)})
	}
	for i := 1; i <= galaxySpecies; i++ {
		m.SetJSON(fmt.Sprintf("species/%d", i), map[string]any{"name": fmt.Sprintf("Species %d", i)})
	}
	for i := 1; i <= galaxyStarships; i++ {
		m.SetJSON(fmt.Sprintf("starships/%d", i), map[string]any{"name": fmt.Sprintf("Starship %d", i)})
	}
	for i := 1; i <= galaxyVehicles; i++ {
		m.SetJSON(fmt.Sprintf("vehicles/%d", i), map[string]any{"name": fmt.Sprintf("Vehicle %d", i)})
	}

	expected := make(map[int]people.Person, hi-lo)
	for id := lo; id < hi; id++ {
		raw, person := m.person(id)
		m.SetJSON(fmt.Sprintf("people/%d", id), raw)
		expected[id] = person
	}
	return expected
}

// person builds a deterministic raw person and its expected flattened form.
// Film lists are deliberately in descending order so a sort would be caught.
func (m *MockSWAPI) person(id int) (map[string]any, people.Person) {
	planet := id%galaxyPlanets + 1

	var films, filmNames []string
	for f := galaxyFilms; f >= 1; f-- {
		if (id+f)%3 == 0 {
			films = append(films, m.Locator(fmt.Sprintf("films/%d", f)))
			filmNames = append(filmNames, fmt.Sprintf("Episode %d", f))
		}
	}

	var species, speciesNames []string
	if id%2 == 0 {
		s := id%galaxySpecies + 1
		species = append(species, m.Locator(fmt.Sprintf("species/%d", s)))
		speciesNames = append(speciesNames, fmt.Sprintf("Species %d", s))
	}

	var starships, starshipNames []string
	for s := 0; s < id%3; s++ {
		n := (id+s)%galaxyStarships + 1
		starships = append(starships, m.Locator(fmt.Sprintf("starships/%d", n)))
		starshipNames = append(starshipNames, fmt.Sprintf("Starship %d", n))
	}

	vehicles := []string{}
	var vehicleNames []string
	if id%5 == 0 {
		v := id%galaxyVehicles + 1
		vehicles = append(vehicles, m.Locator(fmt.Sprintf("vehicles/%d", v)))
		vehicleNames = append(vehicleNames, fmt.Sprintf("Vehicle %d", v))
	}

	raw := map[string]any{
		"name":       fmt.Sprintf("Person %d", id),
		"birth_year": fmt.Sprintf("%dBBY", id),
		"eye_color":  "blue",
		"gender":     "n/a",
		"hair_color": "none",
		"height":     fmt.Sprintf("%d", 100+id),
		"mass":       fmt.Sprintf("%d", 50+id),
		"skin_color": "gold",
		"homeworld":  m.Locator(fmt.Sprintf("planets/%d", planet)),
		"films":      nonNil(films),
		"species":    nonNil(species),
		"starships":  nonNil(starships),
		"vehicles":   vehicles,
		"url":        m.Locator(fmt.Sprintf("people/%d", id)),
	}

	person := people.Person{
		Name:      raw["name"].(string),
		BirthYear: raw["birth_year"].(string),
		EyeColor:  "blue",
		Gender:    "n/a",
		HairColor: "none",
		Height:    raw["height"].(string),
		Mass:      raw["mass"].(string),
		SkinColor: "gold",
		Homeworld: fmt.Sprintf("Planet %d", planet),
		Films:     strings.Join(filmNames, ", "),
		Species:   strings.Join(speciesNames, ", "),
		Starships: strings.Join(starshipNames, ", "),
		Vehicles:  strings.Join(vehicleNames, ", "),
	}
	return raw, person
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
