package plot

import "github.com/oisee/emergent-adventure/internal/bitset"

// Template is one concrete way a Function can occur in a story: the
// predicates it needs, the predicates it makes true, prose for the event
// log, and the terrain category that must host it.
type Template struct {
	Function    Function
	Requires    bitset.Mask
	Provides    bitset.Mask
	Description string
	Anchor      string
}

// Templates holds the per-function template variants. Variants are kept
// in fixed slices so every iteration order is deterministic.
type Templates struct {
	byFunction [NumFunctions][]Template
}

// Add registers a template variant under its function.
func (t *Templates) Add(tpl Template) {
	t.byFunction[tpl.Function] = append(t.byFunction[tpl.Function], tpl)
}

// For returns the variants of one function.
func (t *Templates) For(f Function) []Template {
	return t.byFunction[f]
}

// AllProvisions returns the union of every template's provision mask.
func (t *Templates) AllProvisions() bitset.Mask {
	var m bitset.Mask
	for f := 0; f < NumFunctions; f++ {
		for _, tpl := range t.byFunction[f] {
			m |= tpl.Provides
		}
	}
	return m
}

// DefaultTemplates returns the baseline template catalog: three to four
// variants per function, covering the classic hero's journey shapes.
func DefaultTemplates() *Templates {
	t := &Templates{}

	add := func(f Function, req, prov bitset.Mask, desc, anchor string) {
		t.Add(Template{Function: f, Requires: req, Provides: prov, Description: desc, Anchor: anchor})
	}

	add(Lack, 0, P(HeroExists),
		"Hero discovers the village is threatened", "village")
	add(Lack, 0, P(HeroExists),
		"Hero's mentor is kidnapped", "home")
	add(Lack, 0, P(HeroExists),
		"A great treasure is stolen from the realm", "castle")

	add(Departure, P(HeroExists), P(HasAccess),
		"Hero leaves home to seek adventure", "road")
	add(Departure, P(HeroExists), P(HasAccess),
		"Hero is banished and must prove worth", "clearing")
	add(Departure, P(HeroExists, HasInfo), P(HasAccess),
		"Hero follows the clue to distant lands", "road")

	add(DonorTest, P(HasAccess), 0,
		"A wise sage tests the hero's courage", "temple")
	add(DonorTest, P(HasAccess), 0,
		"A mysterious stranger poses a riddle", "tavern")
	add(DonorTest, P(HasAccess), P(VillainWeak),
		"An ancient spirit reveals the enemy's weakness", "ruins")

	add(Acquisition, P(HasAccess), P(HasWeapon),
		"Hero receives a magic sword", "cave")
	add(Acquisition, P(HasAccess), P(HasKey),
		"Hero obtains the key to the dark fortress", "tower")
	add(Acquisition, P(HasAccess), P(HasInfo),
		"Hero learns the secret path", "temple")
	add(Acquisition, P(HasAccess), P(HasAlly),
		"A loyal companion joins the quest", "tavern")

	add(Guidance, P(HasAccess), P(AtGoal),
		"Hero travels through dangerous lands", "mountain")
	add(Guidance, P(HasAccess, HasKey), P(AtGoal),
		"Hero unlocks the gate to the dark realm", "castle")
	add(Guidance, P(HasAccess, HasInfo), P(AtGoal),
		"Hero follows the secret path to the villain's lair", "dungeon")

	add(Struggle, P(AtGoal, HasWeapon), P(VillainWeak),
		"Hero battles the dragon", "dungeon")
	add(Struggle, P(AtGoal), P(VillainWeak),
		"Hero confronts the dark wizard", "tower")
	add(Struggle, P(AtGoal, HasAlly), P(VillainWeak),
		"Hero and companion face the beast together", "cave")

	add(Victory, P(VillainWeak, HasWeapon), P(QuestComplete),
		"Hero defeats the villain with the magic sword", "dungeon")
	add(Victory, P(VillainWeak, HasInfo), P(QuestComplete),
		"Hero uses secret knowledge to banish the evil", "tower")
	add(Victory, P(VillainWeak, HasAlly), P(QuestComplete),
		"Companion sacrifices to ensure victory", "castle")

	add(Return, P(QuestComplete), 0,
		"Hero returns home a changed person", "village")
	add(Return, P(QuestComplete), 0,
		"Hero is crowned and the realm is saved", "castle")
	add(Return, P(QuestComplete), P(HasInfo),
		"Hero returns with wisdom for the next generation", "home")

	return t
}
