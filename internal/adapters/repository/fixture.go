package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/pkg/logger"
)

// Fixture is a set of teams with their periods, used to seed a store.
// JSON documents parse as well since they are valid YAML.
type Fixture struct {
	Teams []TeamFixture `yaml:"teams"`
}

// TeamFixture is a team plus the periods it owns.
type TeamFixture struct {
	model.Team `yaml:",inline"`
	Periods    []model.Period `yaml:"periods"`
}

// LoadFixture reads and decodes a fixture file.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes fixture bytes.
func ParseFixture(raw []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	for i, t := range f.Teams {
		if t.ID == "" {
			return Fixture{}, fmt.Errorf("%w: teams[%d] has no id", ErrInvalidInput, i)
		}
	}
	return f, nil
}

// Seed creates the fixture's teams and periods. Entries that already exist
// are left untouched.
func Seed(ctx context.Context, store Store, f Fixture) error {
	log := logger.Get().Named("seed")
	for _, t := range f.Teams {
		err := store.CreateTeam(ctx, t.Team)
		switch {
		case errors.Is(err, ErrAlreadyExists):
			log.Debug(ctx, "team already exists", logger.String("team", t.ID))
		case err != nil:
			return fmt.Errorf("seed team %q: %w", t.ID, err)
		}
		for _, p := range t.Periods {
			_, err := store.CreatePeriod(ctx, t.ID, p)
			switch {
			case errors.Is(err, ErrAlreadyExists):
				log.Debug(ctx, "period already exists", logger.String("team", t.ID), logger.String("period", p.ID))
			case err != nil:
				return fmt.Errorf("seed period %q of team %q: %w", p.ID, t.ID, err)
			default:
				log.Info(ctx, "seeded period", logger.String("team", t.ID), logger.String("period", p.ID))
			}
		}
	}
	return nil
}
