package matcher

// Override rewrites a mention before any lookup.
type Override struct {
	Name   string `koanf:"name" json:"name" yaml:"name"`
	School string `koanf:"school" json:"school" yaml:"school"`
}

// Config holds every matching input besides the roster. Map keys are normalised.
type Config struct {
	Collisions    []string            `koanf:"collisions" json:"collisions" yaml:"collisions"`
	Overrides     map[string]Override `koanf:"overrides" json:"overrides" yaml:"overrides"`
	SchoolAliases map[string]string   `koanf:"school_aliases" json:"school_aliases" yaml:"school_aliases"`
	NameVariants  map[string]string   `koanf:"name_variants" json:"name_variants" yaml:"name_variants"`
}

// DefaultCollisions are surnames known to repeat across a Division I field.
func DefaultCollisions() []string {
	return []string{
		"smith", "knox", "koderhandt", "composto", "johnson", "thomson",
		"thompson", "thomsen", "voelker", "kueter", "keuter", "scott", "edmond", "otoole",
	}
}

// DefaultOverrides pin wrestlers whose published spelling differs from the draft sheet.
func DefaultOverrides() map[string]Override {
	return map[string]Override{
		"garrett thompson": {Name: "Garrett Thomson", School: "Ohio"},
		"caleb smith":      {Name: "Caleb Smith", School: "Nebraska"},
		"ben kueter":       {Name: "Ben Keuter", School: "Iowa"},
	}
}

// DefaultSchoolAliases maps abbreviations and common misspellings to one school name.
func DefaultSchoolAliases() map[string]string {
	return map[string]string{
		"vt":                    "virginia tech",
		"viginia tech":          "virginia tech",
		"uva":                   "virginia",
		"psu":                   "penn state",
		"osu":                   "ohio state",
		"unc":                   "north carolina",
		"isu":                   "iowa state",
		"ncsu":                  "nc state",
		"oklahome state":        "oklahoma state",
		"pittburgh":             "pittsburgh",
		"califoria bakersfield": "csu bakersfield",
		"bakersfield":           "csu bakersfield",
		"csub":                  "csu bakersfield",
		"penn":                  "pennsylvania",
	}
}

// DefaultNameVariants fold spelling variants onto a shared stem.
func DefaultNameVariants() map[string]string {
	return map[string]string{
		"thompson": "thoms",
		"thomson":  "thoms",
		"kueter":   "kuet",
		"keuter":   "kuet",
	}
}

// DefaultConfig bundles the defaults.
func DefaultConfig() Config {
	return Config{
		Collisions:    DefaultCollisions(),
		Overrides:     DefaultOverrides(),
		SchoolAliases: DefaultSchoolAliases(),
		NameVariants:  DefaultNameVariants(),
	}
}
