package store

import (
	"strings"

	"github.com/Sternrassler/swapi-etl/pkg/people"
)

// columns of the people table besides id, in insert order.
var columns = []string{
	"birth_year",
	"eye_color",
	"films",
	"gender",
	"hair_color",
	"height",
	"homeworld",
	"mass",
	"name",
	"skin_color",
	"species",
	"starships",
	"vehicles",
}

var columnList = strings.Join(columns, ", ")

// PersonRow is a stored person. ID is assigned by the database on commit.
type PersonRow struct {
	ID int64
	people.Person
}

// NewPersonRow maps a resolved person to an unsaved row.
func NewPersonRow(p people.Person) *PersonRow {
	return &PersonRow{Person: p}
}

// values returns the column values in the order of columns.
func (r *PersonRow) values() []any {
	return []any{
		r.BirthYear,
		r.EyeColor,
		r.Films,
		r.Gender,
		r.HairColor,
		r.Height,
		r.Homeworld,
		r.Mass,
		r.Name,
		r.SkinColor,
		r.Species,
		r.Starships,
		r.Vehicles,
	}
}

func (r *PersonRow) scanTargets() []any {
	return []any{
		&r.BirthYear,
		&r.EyeColor,
		&r.Films,
		&r.Gender,
		&r.HairColor,
		&r.Height,
		&r.Homeworld,
		&r.Mass,
		&r.Name,
		&r.SkinColor,
		&r.Species,
		&r.Starships,
		&r.Vehicles,
	}
}

func insertQuery(d Dialect) string {
	params := make([]string, len(columns))
	for i := range columns {
		params[i] = d.placeholder(i + 1)
	}
	return "INSERT INTO people (" + columnList + ") VALUES (" + strings.Join(params, ", ") + ") RETURNING id"
}
