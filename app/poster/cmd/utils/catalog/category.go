package catalog

import "path/filepath"

// Category identifies one content type of the catalog.
type Category string

const (
	CategoryBirthday     Category = "birthday"
	CategoryDeathday     Category = "deathday"
	CategoryEvent        Category = "event"
	CategorySpell        Category = "spell"
	CategoryPotion       Category = "potion"
	CategoryCreature     Category = "creature"
	CategoryObject       Category = "object"
	CategoryLocation     Category = "location"
	CategoryOrganization Category = "organization"
	CategoryConcept      Category = "concept"
	CategoryCharacter    Category = "character"
)

// CalendarCategories are matched against a calendar date.
var CalendarCategories = []Category{
	CategoryBirthday,
	CategoryDeathday,
	CategoryEvent,
}

// GlossaryCategories have no date field and are posted by random selection.
var GlossaryCategories = []Category{
	CategorySpell,
	CategoryPotion,
	CategoryCreature,
	CategoryObject,
	CategoryLocation,
	CategoryOrganization,
	CategoryConcept,
	CategoryCharacter,
}

type categoryConfig struct {
	subdir string
	file   string
}

var categoryConfigs = map[Category]categoryConfig{
	CategoryBirthday:     {subdir: "calendar", file: "birthdays.json"},
	CategoryDeathday:     {subdir: "calendar", file: "deathdays.json"},
	CategoryEvent:        {subdir: "calendar", file: "events.json"},
	CategorySpell:        {subdir: "glossary", file: "spells.json"},
	CategoryPotion:       {subdir: "glossary", file: "potions.json"},
	CategoryCreature:     {subdir: "glossary", file: "creatures.json"},
	CategoryObject:       {subdir: "glossary", file: "objects.json"},
	CategoryLocation:     {subdir: "glossary", file: "locations.json"},
	CategoryOrganization: {subdir: "glossary", file: "organizations.json"},
	CategoryConcept:      {subdir: "glossary", file: "concepts.json"},
	CategoryCharacter:    {subdir: "glossary", file: "characters.json"},
}

// Known reports whether the given name is a valid category.
func Known(name string) bool {
	_, ok := categoryConfigs[Category(name)]
	return ok
}

// IsCalendar reports whether records of this category carry a date field.
func (c Category) IsCalendar() bool {
	switch c {
	case CategoryBirthday, CategoryDeathday, CategoryEvent:
		return true
	}
	return false
}

// IsGlossary reports whether this category is selected randomly.
func (c Category) IsGlossary() bool {
	return Known(string(c)) && !c.IsCalendar()
}

func (c Category) dataFile(dataDir string) string {
	cfg := categoryConfigs[c]
	return filepath.Join(dataDir, cfg.subdir, cfg.file)
}
