package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"parkwatch-be/models"
)

// streetPadding widens a street's bounding box, in degrees (about 50 m)
const streetPadding = 0.0005

// LoadStreets reads the street catalog
func LoadStreets(path string) ([]models.Street, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read street catalog: %w", err)
	}
	var catalog struct {
		Streets []models.Street `yaml:"streets"`
	}
	if err := yaml.Unmarshal(b, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse street catalog: %w", err)
	}
	for _, s := range catalog.Streets {
		if s.Name == "" || len(s.Points) < 2 {
			return nil, fmt.Errorf("street %q needs a name and at least two points", s.Name)
		}
	}
	return catalog.Streets, nil
}

type StreetOverlay struct {
	models.Street
	ViolationCount int    `json:"violationCount"`
	Color          string `json:"color"`
}

func streetColor(n int) string {
	switch {
	case n == 0:
		return "green"
	case n < 5:
		return "orange"
	default:
		return "red"
	}
}

// StreetService colors catalog streets by the approved reports near them
type StreetService struct {
	streets []models.Street
	geo     *GeoService
	l       *zap.Logger
}

func NewStreetService(streets []models.Street, geo *GeoService, l *zap.Logger) *StreetService {
	return &StreetService{streets: streets, geo: geo, l: l.Named("street")}
}

func (s *StreetService) Overlay(ctx context.Context) ([]StreetOverlay, error) {
	result := make([]StreetOverlay, 0, len(s.streets))
	for _, st := range s.streets {
		n, err := s.geo.count(ctx, st.BoundingBox().Pad(streetPadding))
		if err != nil {
			return nil, err
		}
		result = append(result, StreetOverlay{Street: st, ViolationCount: n, Color: streetColor(n)})
	}
	return result, nil
}
