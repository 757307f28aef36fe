// Package catalog holds the read-only reference data a registration form
// is checked against: the rooms available for assignment and the meals a
// tenant can subscribe to.
//
// A *Catalog is built once at startup and passed explicitly to whoever
// needs it. Nothing in it changes after construction, so it is safe for
// concurrent use without locking.
package catalog

import (
	"errors"
	"fmt"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/ilyakaznacheev/cleanenv"
)

// DepositMultiplier is how many months of rent the security deposit
// defaults to.
const DepositMultiplier = 2

var ErrEmptyCatalog = errors.New("catalog has no rooms")

// Catalog is the immutable room and meal reference list.
type Catalog struct {
	rooms []types.AvailableRoom
	byID  map[string]types.AvailableRoom
	meals []types.MealOption
}

// file is the on-disk YAML shape read by Load.
type file struct {
	Rooms []types.AvailableRoom `yaml:"rooms"`
	Meals []types.MealOption    `yaml:"meals"`
}

// New builds a Catalog, rejecting duplicate ids and non-positive rents.
// The slices are copied; later changes by the caller are not observed.
func New(rooms []types.AvailableRoom, meals []types.MealOption) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		rooms: make([]types.AvailableRoom, 0, len(rooms)),
		byID:  make(map[string]types.AvailableRoom, len(rooms)),
		meals: make([]types.MealOption, 0, len(meals)),
	}

	for _, r := range rooms {
		if r.ID == "" {
			return nil, errors.New("catalog.New: room with empty id")
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("catalog.New: duplicate room id %q", r.ID)
		}
		if r.Rent <= 0 {
			return nil, fmt.Errorf("catalog.New: room %q has non-positive rent %d", r.ID, r.Rent)
		}
		c.rooms = append(c.rooms, r)
		c.byID[r.ID] = r
	}

	seen := make(map[string]struct{}, len(meals))
	for _, m := range meals {
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("catalog.New: duplicate meal id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		c.meals = append(c.meals, m)
	}

	return c, nil
}

// Default returns the built-in catalog the hostel ships with.
func Default() *Catalog {
	c, err := New(
		[]types.AvailableRoom{
			{ID: "A-103", Type: "Single", Rent: 8500, Floor: 1},
			{ID: "B-202", Type: "Double", Rent: 6000, Floor: 2},
			{ID: "C-303", Type: "Triple", Rent: 5500, Floor: 3},
			{ID: "B-204", Type: "Double", Rent: 6000, Floor: 2},
			{ID: "A-105", Type: "Single", Rent: 8500, Floor: 1},
		},
		DefaultMeals(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultMeals is the meal list used when a catalog file names none.
func DefaultMeals() []types.MealOption {
	return []types.MealOption{
		{ID: "breakfast", Label: "Breakfast", Price: 50},
		{ID: "lunch", Label: "Lunch", Price: 80},
		{ID: "dinner", Label: "Dinner", Price: 80},
	}
}

// Load reads a catalog from a YAML file. An empty path yields Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	var f file
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	if len(f.Meals) == 0 {
		f.Meals = DefaultMeals()
	}

	return New(f.Rooms, f.Meals)
}

// Rooms returns every room in catalog order.
func (c *Catalog) Rooms() []types.AvailableRoom {
	out := make([]types.AvailableRoom, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Room looks a room up by id.
func (c *Catalog) Room(id string) (types.AvailableRoom, bool) {
	r, ok := c.byID[id]
	return r, ok
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Meals returns every meal option in catalog order.
func (c *Catalog) Meals() []types.MealOption {
	out := make([]types.MealOption, len(c.meals))
	copy(out, c.meals)
	return out
}

func (c *Catalog) HasMeal(id string) bool {
	for _, m := range c.meals {
		if m.ID == id {
			return true
		}
	}
	return false
}
