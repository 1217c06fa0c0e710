package sourcexml

// Talent is a <Talent> element.
type Talent struct {
	Key             string `xml:"Key"`
	Name            string `xml:"Name"`
	Description     string `xml:"Description"`
	Ranked          string `xml:"Ranked"`
	ActivationValue string `xml:"ActivationValue"`
	ForceTalent     string `xml:"ForceTalent"`
}

// Gear is a <Gear> element.
type Gear struct {
	Key         string `xml:"Key"`
	Name        string `xml:"Name"`
	Description string `xml:"Description"`
	Type        string `xml:"Type"`
	Price       string `xml:"Price"`
	Rarity      string `xml:"Rarity"`
	Encumbrance string `xml:"Encumbrance"`
}

// Quality is one weapon quality reference.
type Quality struct {
	Key   string `xml:"Key"`
	Count string `xml:"Count"`
}

// Weapon is a <Weapon> element.
type Weapon struct {
	Key         string    `xml:"Key"`
	Name        string    `xml:"Name"`
	Description string    `xml:"Description"`
	Type        string    `xml:"Type"`
	Price       string    `xml:"Price"`
	Rarity      string    `xml:"Rarity"`
	Encumbrance string    `xml:"Encumbrance"`
	Damage      string    `xml:"Damage"`
	DamageAdd   string    `xml:"DamageAdd"`
	Crit        string    `xml:"Crit"`
	SkillKey    string    `xml:"SkillKey"`
	Range       string    `xml:"Range"`
	HP          string    `xml:"HP"`
	Qualities   []Quality `xml:"Qualities>Quality"`
}

// Armor is an <Armor> element.
type Armor struct {
	Key         string `xml:"Key"`
	Name        string `xml:"Name"`
	Description string `xml:"Description"`
	Type        string `xml:"Type"`
	Price       string `xml:"Price"`
	Rarity      string `xml:"Rarity"`
	Encumbrance string `xml:"Encumbrance"`
	Defense     string `xml:"Defense"`
	Soak        string `xml:"Soak"`
	HP          string `xml:"HP"`
}

// ForceAbility is one entry of the force abilities catalog.
type ForceAbility struct {
	Key         string `xml:"Key"`
	Name        string `xml:"Name"`
	Description string `xml:"Description"`
}

// Direction carries the adjacency flags of one grid column.
type Direction struct {
	Up    string `xml:"Up"`
	Right string `xml:"Right"`
}

// AbilityRow is one row of a force power tree. Its slices are parallel and
// indexed by column.
type AbilityRow struct {
	Abilities  []string    `xml:"Abilities>Key"`
	Costs      []string    `xml:"Costs>Cost"`
	Spans      []string    `xml:"AbilitySpan>Span"`
	Directions []Direction `xml:"Directions>Direction"`
}

// ForcePower is the root of a per-power document.
type ForcePower struct {
	Key         string       `xml:"Key"`
	Name        string       `xml:"Name"`
	Description string       `xml:"Description"`
	AbilityRows []AbilityRow `xml:"AbilityRows>AbilityRow"`
}

// TalentRow is one row of a specialization tree.
type TalentRow struct {
	Cost       string      `xml:"Cost"`
	Talents    []string    `xml:"Talents>Key"`
	Directions []Direction `xml:"Directions>Direction"`
}

// Specialization is the root of a per-specialization document.
type Specialization struct {
	Key          string      `xml:"Key"`
	Name         string      `xml:"Name"`
	Description  string      `xml:"Description"`
	CareerSkills []string    `xml:"CareerSkills>Key"`
	TalentRows   []TalentRow `xml:"TalentRows>TalentRow"`
}

// Skill is one entry of the skills catalog.
type Skill struct {
	Key       string `xml:"Key"`
	Name      string `xml:"Name"`
	TypeValue string `xml:"TypeValue"`
}

// Document is every importable element found in one mixed source document,
// each slice in document order.
type Document struct {
	Source         string
	Talents        []Talent
	Gear           []Gear
	Weapons        []Weapon
	Armor          []Armor
	ForceAbilities []ForceAbility
}

// Empty reports whether the document carried no importable elements.
func (d *Document) Empty() bool {
	return len(d.Talents) == 0 && len(d.Gear) == 0 && len(d.Weapons) == 0 &&
		len(d.Armor) == 0 && len(d.ForceAbilities) == 0
}

// FindAbility returns the catalog entry with the given key.
func (d *Document) FindAbility(key string) (*ForceAbility, bool) {
	for i := range d.ForceAbilities {
		if d.ForceAbilities[i].Key == key {
			return &d.ForceAbilities[i], true
		}
	}
	return nil, false
}
