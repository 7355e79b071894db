package main

import "strings"

// RegionCode identifies one of the vacation calendars tracked in
// t_vacances: the four French zones plus six neighboring countries.
// The set is closed; labels that resolve to nothing are dropped.
type RegionCode string

const (
	regionZoneA RegionCode = "fr_zone_a"
	regionZoneB RegionCode = "fr_zone_b"
	regionZoneC RegionCode = "fr_zone_c"
	regionCorse RegionCode = "fr_zone_corse"
	regionDE    RegionCode = "de"
	regionBE    RegionCode = "be"
	regionES    RegionCode = "es"
	regionIT    RegionCode = "it"
	regionLU    RegionCode = "lu"
	regionCH    RegionCode = "ch"
)

// allRegions fixes the column order of the destination table.
var allRegions = []RegionCode{
	regionZoneA,
	regionZoneB,
	regionZoneC,
	regionCorse,
	regionDE,
	regionBE,
	regionES,
	regionIT,
	regionLU,
	regionCH,
}

var regionColumns = map[RegionCode]string{
	regionZoneA: "fr_zone_a",
	regionZoneB: "fr_zone_b",
	regionZoneC: "fr_zone_c",
	regionCorse: "fr_corse",
	regionDE:    "allemagne",
	regionBE:    "belgique",
	regionES:    "espagne",
	regionIT:    "italie",
	regionLU:    "luxembourg",
	regionCH:    "suisse",
}

// academyTable maps a normalized académie name to its zone letter
// ("a", "b" or "c"). Académies move between zones across school
// years, so the table is configuration data: these defaults match the
// current MENJ zoning and can be replaced with -academies.
type academyTable map[string]string

func defaultAcademyTable() academyTable {
	return academyTable{
		// Zone A
		"besancon":         "a",
		"bordeaux":         "a",
		"clermont-ferrand": "a",
		"dijon":            "a",
		"grenoble":         "a",
		"limoges":          "a",
		"lyon":             "a",
		"poitiers":         "a",
		// Zone B
		"aix-marseille": "b",
		"amiens":        "b",
		"lille":         "b",
		"nancy-metz":    "b",
		"nantes":        "b",
		"nice":          "b",
		"normandie":     "b",
		"caen":          "b",
		"rouen":         "b",
		"orleans-tours": "b",
		"reims":         "b",
		"rennes":        "b",
		"strasbourg":    "b",
		// Zone C
		"creteil":     "c",
		"montpellier": "c",
		"paris":       "c",
		"toulouse":    "c",
		"versailles":  "c",
	}
}

var zoneByLetter = map[string]RegionCode{
	"a": regionZoneA,
	"b": regionZoneB,
	"c": regionZoneC,
}

// corseAliases covers the labels the source feeds have used for
// Corsica; its académie name does not carry a stable "Corse" spelling
// across years, so matching is alias-based rather than a single
// substring test.
var corseAliases = []string{
	"corse",
	"corsica",
	"ajaccio",
	"bastia",
	"20a/20b",
}

// countryLabels resolves a whole zones value (or one comma-separated
// part of it) to a country code. Covers the French and English names
// plus the region codes used by the neighboring-country feeds.
var countryLabels = map[string]RegionCode{
	"allemagne":   regionDE,
	"germany":     regionDE,
	"deutschland": regionDE,
	"de_by":       regionDE,
	"belgique":    regionBE,
	"belgium":     regionBE,
	"belgie":      regionBE,
	"be_nl":       regionBE,
	"espagne":     regionES,
	"spain":       regionES,
	"espana":      regionES,
	"es_ga":       regionES,
	"italie":      regionIT,
	"italy":       regionIT,
	"italia":      regionIT,
	"it_bz":       regionIT,
	"luxembourg":  regionLU,
	"lu":          regionLU,
	"suisse":      regionCH,
	"switzerland": regionCH,
	"schweiz":     regionCH,
	"ch_zh":       regionCH,
}

var textNormalizer = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"’", "'",
)

// normalizeText lowercases, trims and strips the accents seen in the
// French source labels so lookups survive encoding drift between
// feed years.
func normalizeText(value string) string {
	return textNormalizer.Replace(strings.ToLower(strings.TrimSpace(value)))
}

// mapRegions resolves the free-text Zones and Académies fields of one
// raw row to the region codes it covers. Pure; unrecognized text
// yields an empty result rather than an error, because the feeds
// include territories this table does not track.
func mapRegions(zones, academies string, table academyTable) []RegionCode {
	zonesNorm := normalizeText(zones)
	academiesNorm := normalizeText(academies)

	matched := map[RegionCode]bool{}

	// French metropolitan zones: the letters claimed by the Zones
	// field, cross-checked against the zones of any listed académies.
	claimed := zoneLettersIn(zonesNorm)
	confirmed := academyZones(academiesNorm, table)
	for letter := range claimed {
		if len(confirmed) == 0 || confirmed[letter] {
			matched[zoneByLetter[letter]] = true
		}
	}
	if len(claimed) == 0 {
		for letter := range confirmed {
			matched[zoneByLetter[letter]] = true
		}
	}

	if matchesCorse(zonesNorm) || matchesCorse(academiesNorm) {
		matched[regionCorse] = true
	}

	for _, part := range splitLabels(zonesNorm) {
		if code, ok := countryLabels[part]; ok {
			matched[code] = true
		}
	}

	result := make([]RegionCode, 0, len(matched))
	for _, code := range allRegions {
		if matched[code] {
			result = append(result, code)
		}
	}
	return result
}

// zoneLettersIn extracts the zone letters named by a normalized Zones
// value ("zone a", "zones a et b", ...).
func zoneLettersIn(value string) map[string]bool {
	letters := map[string]bool{}
	if !strings.Contains(value, "zone") {
		return letters
	}
	for letter := range zoneByLetter {
		if strings.Contains(value, "zone "+letter) || strings.Contains(value, "zone"+letter) {
			letters[letter] = true
		}
	}
	// "Zones A et C" style lists name the letters after a shared prefix.
	if len(letters) == 0 {
		for _, part := range strings.Fields(value) {
			part = strings.Trim(part, ",&")
			if _, ok := zoneByLetter[part]; ok {
				letters[part] = true
			}
		}
	}
	return letters
}

// academyZones collects the zone letters of every known académie
// named in a normalized Académies value. Unknown académies contribute
// nothing, so a row with only unrecognized académies falls back to
// the letters claimed by the Zones field.
func academyZones(value string, table academyTable) map[string]bool {
	letters := map[string]bool{}
	if value == "" || len(table) == 0 {
		return letters
	}
	for _, part := range splitLabels(value) {
		if letter, ok := table[part]; ok {
			letters[letter] = true
		}
	}
	return letters
}

func matchesCorse(value string) bool {
	if value == "" {
		return false
	}
	for _, alias := range corseAliases {
		if strings.Contains(value, alias) {
			return true
		}
	}
	return false
}

func splitLabels(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
