package modules

// File formats of a module directory:
//
//	<module>/meta.yaml
//	<module>/zones/<zone>.yaml
//	<module>/prototypes/<prototype>.yaml

// Meta is meta.yaml.
type Meta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Priority orders module loading; lower loads first.
	Priority int `yaml:"priority"`
}

// ZoneFile is one zones/*.yaml file.
type ZoneFile struct {
	Key      string      `yaml:"key"`
	Name     string      `yaml:"name"`
	Lifespan int         `yaml:"lifespan"`
	Rooms    []RoomFile  `yaml:"rooms"`
	Spawns   []SpawnRule `yaml:"spawns"`
}

// RoomFile is one room of a zone file.
type RoomFile struct {
	Key         string              `yaml:"key"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Flags       []string            `yaml:"flags"`
	Gravity     *float64            `yaml:"gravity"`
	Exits       map[string]ExitFile `yaml:"exits"`
}

// ExitFile is one exit, keyed by direction name or abbreviation.
type ExitFile struct {
	To          string   `yaml:"to"`
	Keyword     string   `yaml:"keyword"`
	Flags       []string `yaml:"flags"`
	Description string   `yaml:"description"`
}

// SpawnRule keeps Count instances of a prototype in a room; zone resets top it up.
type SpawnRule struct {
	// Prototype is "module:prototype", or a bare name within the zone's module.
	Prototype string `yaml:"prototype"`
	Room      string `yaml:"room"`
	// Count defaults to 1.
	Count int `yaml:"count"`
}
