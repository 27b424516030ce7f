package handlers

import (
	"sort"

	"estimator/internal/artifacts"
	"estimator/internal/features"
)

// RouteEntry is one route as listed by the catalog
type RouteEntry struct {
	RouteNo    string   `json:"route_no"`
	Name       string   `json:"name,omitempty"`
	DistanceKM float64  `json:"distance_km"`
	Classes    []string `json:"classes"`
}

// Catalog lists what the models know about. Clients use it to fill their pickers.
type Catalog struct {
	Locations     []string                      `json:"locations"`
	PropertyTypes []string                      `json:"property_types"`
	Districts     []string                      `json:"districts"`
	Categories    map[string][]string           `json:"categories"`
	Routes        []RouteEntry                  `json:"routes"`
	DefaultHub    string                        `json:"default_location"`
	Models        []artifacts.ModelInfo         `json:"models"`
	DatasetSize   map[string]int                `json:"dataset_size"`
	Metrics       map[string]map[string]float64 `json:"metrics"`
}

// BuildCatalog assembles the catalog once from the loaded store
func BuildCatalog(store *artifacts.Store) *Catalog {
	c := &Catalog{
		Categories: make(map[string][]string),
		DefaultHub: features.DefaultHub,
		Models:     store.Models(),
	}

	for _, name := range store.Encoders() {
		table, err := store.Encoder(name)
		if err != nil {
			continue
		}
		categories := table.Categories()
		sort.Strings(categories)
		c.Categories[name] = categories
	}
	c.Locations = c.Categories["location"]
	c.PropertyTypes = c.Categories["property_type"]
	c.Districts = c.Categories["district"]

	for _, r := range store.Routes().List() {
		c.Routes = append(c.Routes, RouteEntry{
			RouteNo:    r.No,
			Name:       r.Name,
			DistanceKM: r.DistanceKM,
			Classes:    r.Classes(),
		})
	}

	if meta := store.Catalog(); meta != nil {
		c.DatasetSize = meta.DatasetSize
		c.Metrics = meta.Metrics
	}
	return c
}
