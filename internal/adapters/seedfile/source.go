// Package seedfile serves hostel documents from a YAML seed file.
package seedfile

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"hostel_booking/internal/domain"
)

// File is the seed document layout.
type File struct {
	Hostels []map[string]any `yaml:"hostels"`
}

// Source implements domain.HostelSource and domain.HostelRepository over a loaded seed file.
type Source struct {
	ids  []string
	docs map[string]domain.RawHostel
}

func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file File
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("seedfile: decode %s: %w", path, err)
	}
	return FromDocs(file.Hostels)
}

// FromDocs keys documents by id, falling back to a slug of the name.
func FromDocs(docs []map[string]any) (*Source, error) {
	s := &Source{docs: make(map[string]domain.RawHostel, len(docs))}
	for i, d := range docs {
		id := docID(d)
		if id == "" {
			return nil, fmt.Errorf("seedfile: hostel #%d has neither id nor name", i)
		}
		if _, dup := s.docs[id]; dup {
			return nil, fmt.Errorf("seedfile: duplicate hostel id %q", id)
		}
		raw := domain.RawHostel(d)
		if _, ok := raw["id"]; !ok {
			raw["id"] = id
		}
		s.ids = append(s.ids, id)
		s.docs[id] = raw
	}
	return s, nil
}

func (s *Source) ListHostelIDs(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.ids...), nil
}

func (s *Source) FetchHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	return s.GetHostel(ctx, id)
}

func (s *Source) ListHostels(ctx context.Context) ([]domain.RawHostel, error) {
	out := make([]domain.RawHostel, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.docs[id])
	}
	return out, nil
}

func (s *Source) GetHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "hostel", ID: id}
	}
	return d, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func docID(d map[string]any) string {
	for _, k := range []string{"id", "_id"} {
		switch v := d[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case int:
			return fmt.Sprint(v)
		}
	}
	if name, ok := d["name"].(string); ok {
		return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	}
	return ""
}
