// Package codec encodes the persisted project snapshot in a self-describing format.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/tally/internal/domain/ledger"
)

// Codec marshals and unmarshals snapshot payloads.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Format names accepted by ForFormat.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// ForFormat returns the codec registered under name. Empty selects JSON.
func ForFormat(name string) (Codec, error) {
	switch name {
	case "", FormatJSON:
		return JSON{}, nil
	case FormatCBOR:
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", name)
	}
}

// JSON is the default snapshot codec.
type JSON struct{}

func (JSON) Name() string { return FormatJSON }

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// EncodeProjects serializes the full ordered collection.
func EncodeProjects(c Codec, projects []ledger.Project) ([]byte, error) {
	if projects == nil {
		projects = []ledger.Project{}
	}
	data, err := c.Marshal(projects)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", c.Name(), err)
	}
	return data, nil
}

// ErrCorrupt marks a snapshot that cannot be decoded or fails validation.
var ErrCorrupt = errors.New("corrupt snapshot")

// DecodeProjects parses a collection written by EncodeProjects.
func DecodeProjects(c Codec, data []byte) ([]ledger.Project, error) {
	var projects []ledger.Project
	if err := c.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrCorrupt, c.Name(), err)
	}
	for i := range projects {
		if err := validate(&projects[i]); err != nil {
			return nil, fmt.Errorf("%w: decode %s: project %d: %w", ErrCorrupt, c.Name(), i, err)
		}
		if projects[i].Rounds == nil {
			projects[i].Rounds = []ledger.Round{}
		}
	}
	if projects == nil {
		projects = []ledger.Project{}
	}
	return projects, nil
}

func validate(p *ledger.Project) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("missing id")
	case len(p.Members) == 0 || len(p.Members) > ledger.MaxMembers:
		return fmt.Errorf("roster size %d", len(p.Members))
	}
	return nil
}
