// Package seed loads the service catalog from YAML and writes it to the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"venivici/internal/catalog/service"
	"venivici/internal/catalog/validator"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

//go:embed services.yaml
var defaultCatalog []byte

type document struct {
	Services []model.Service `yaml:"services"`
}

// Store is the part of the service repository the seeder writes through.
type Store interface {
	UpsertByName(ctx context.Context, svc *model.Service) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type Result struct {
	Created int
	Updated int
	Removed int64
}

// Default returns the built-in catalog.
func Default() ([]model.Service, error) {
	return Parse(defaultCatalog)
}

func LoadFile(path string) ([]model.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document, rejecting unknown keys, and validates every entry.
func Parse(data []byte) ([]model.Service, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("seed file lists no services")
	}

	v := validator.NewServiceValidator()
	seen := make(map[string]bool, len(doc.Services))
	for i := range doc.Services {
		svc := &doc.Services[i]
		service.Normalize(svc)
		if err := v.Validate(svc); err != nil {
			return nil, fmt.Errorf("service %d (%q): %w", i+1, svc.Name, err)
		}
		if seen[svc.Name] {
			return nil, fmt.Errorf("service %q is listed twice", svc.Name)
		}
		seen[svc.Name] = true
	}
	return doc.Services, nil
}

// Apply upserts services by name. With reset the collection is emptied first.
func Apply(ctx context.Context, store Store, services []model.Service, reset bool, log *logger.Logger) (Result, error) {
	var result Result

	if reset {
		removed, err := store.DeleteAll(ctx)
		if err != nil {
			return result, err
		}
		result.Removed = removed
		log.Info("Existing services cleared", "removed", removed)
	}

	for i := range services {
		created, err := store.UpsertByName(ctx, &services[i])
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	log.Info("Service catalog seeded",
		"created", result.Created,
		"updated", result.Updated,
		"removed", result.Removed,
	)
	return result, nil
}
