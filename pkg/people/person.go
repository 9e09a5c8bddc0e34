package people

// Person is the flattened, fully resolved form of a RawRecord.
type Person struct {
	Name      string
	BirthYear string
	EyeColor  string
	Gender    string
	HairColor string
	Height    string
	Mass      string
	SkinColor string

	Homeworld string
	Films     string
	Species   string
	Starships string
	Vehicles  string
}

// ScalarFields are copied verbatim from the raw record.
var ScalarFields = []string{
	"name",
	"birth_year",
	"eye_color",
	"gender",
	"hair_color",
	"height",
	"mass",
	"skin_color",
}

// Relation describes one relationship field and the attribute read from
// every resource it points to.
type Relation struct {
	// Field is the key in the raw record.
	Field string

	// Display is the key read from each fetched resource.
	Display string
}

// Relations lists the relationship fields in resolution order.
var Relations = []Relation{
	{Field: "homeworld", Display: "name"},
	{Field: "films", Display: "title"},
	{Field: "species", Display: "name"},
	{Field: "starships", Display: "name"},
	{Field: "vehicles", Display: "name"},
}

// SetScalar assigns a scalar field by its raw record key. Unknown keys are ignored.
func (p *Person) SetScalar(field, value string) {
	switch field {
	case "name":
		p.Name = value
	case "birth_year":
		p.BirthYear = value
	case "eye_color":
		p.EyeColor = value
	case "gender":
		p.Gender = value
	case "hair_color":
		p.HairColor = value
	case "height":
		p.Height = value
	case "mass":
		p.Mass = value
	case "skin_color":
		p.SkinColor = value
	}
}

// SetRelation assigns a resolved relationship field by its raw record key.
func (p *Person) SetRelation(field, joined string) {
	switch field {
	case "homeworld":
		p.Homeworld = joined
	case "films":
		p.Films = joined
	case "species":
		p.Species = joined
	case "starships":
		p.Starships = joined
	case "vehicles":
		p.Vehicles = joined
	}
}
