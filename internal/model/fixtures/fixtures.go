// Package fixtures loads profile and room seed documents.
package fixtures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
)

// Document is the YAML layout accepted by SEED_FILE.
type Document struct {
	Profiles []profile.Profile `yaml:"profiles"`
	Rooms    []room.Room       `yaml:"rooms"`
}

// Default returns the built-in demo directory and rooms.
func Default() Document {
	return Document{Profiles: profile.Seed(), Rooms: room.Seed()}
}

// Load reads fixtures from path. An empty path yields Default.
func Load(path string) (Document, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a fixtures document.
func Parse(raw []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode seed file: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks that the document can boot a session.
func (d Document) Validate() error {
	if len(d.Profiles) < 2 {
		return fmt.Errorf("seed needs at least two profiles, got %d", len(d.Profiles))
	}
	if len(d.Rooms) == 0 {
		return fmt.Errorf("seed needs at least one room")
	}

	ids := make(map[string]struct{}, len(d.Profiles))
	for _, p := range d.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profile without id")
		}
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("duplicate profile id %s", p.ID)
		}
		if !p.Role.Valid() {
			return fmt.Errorf("profile %s: unknown role %q", p.ID, p.Role)
		}
		ids[p.ID] = struct{}{}
	}

	rooms := make(map[string]struct{}, len(d.Rooms))
	for _, r := range d.Rooms {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := rooms[r.ID]; dup {
			return fmt.Errorf("duplicate room id %s", r.ID)
		}
		rooms[r.ID] = struct{}{}
		for _, m := range r.Members {
			if _, ok := ids[m]; !ok {
				return fmt.Errorf("room %s: unknown member %s", r.ID, m)
			}
		}
	}
	return nil
}
