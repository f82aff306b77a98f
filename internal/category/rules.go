// Package category holds the ordered tag-filter rules that classify upstream
// map elements into POI categories.
package category

import (
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rule matches elements whose tag under Key carries one of Values.
type Rule struct {
	Category string   `yaml:"category"`
	Key      string   `yaml:"key"`
	Values   []string `yaml:"values"`
}

// RuleSet is an ordered list of rules. Evaluation order is the file/config
// order; the first matching rule wins.
type RuleSet struct {
	rules      []Rule
	categories []string
	known      map[string]bool
}

// New builds a RuleSet from rules in evaluation order.
func New(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{known: make(map[string]bool)}
	for i, r := range rules {
		cat := strings.ToLower(strings.TrimSpace(r.Category))
		if cat == "" || r.Key == "" || len(r.Values) == 0 {
			return nil, eris.Errorf("category: rule %d is incomplete (category=%q key=%q)", i, r.Category, r.Key)
		}
		r.Category = cat
		rs.rules = append(rs.rules, r)
		if !rs.known[cat] {
			rs.known[cat] = true
			rs.categories = append(rs.categories, cat)
		}
	}
	if len(rs.rules) == 0 {
		return nil, eris.New("category: empty rule set")
	}
	return rs, nil
}

// Load reads an ordered rule list from a YAML file.
func Load(path string) (*RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "category: read rules %s", path)
	}
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, eris.Wrapf(err, "category: parse rules %s", path)
	}
	return New(rules)
}

// Default returns the built-in rule set for the supported categories.
func Default() *RuleSet {
	rs, err := New([]Rule{
		{Category: "education", Key: "amenity", Values: []string{"school", "kindergarten", "college", "university"}},
		{Category: "restaurant", Key: "amenity", Values: []string{"bar", "biergarten", "cafe", "fast_food", "food_court", "pub", "restaurant"}},
		{Category: "supermarket", Key: "shop", Values: []string{"supermarket", "convenience", "food", "mall"}},
		{Category: "healthcare", Key: "amenity", Values: []string{"clinic", "dentist", "doctors", "hospital", "pharmacy"}},
		{Category: "park", Key: "leisure", Values: []string{"dog_park", "garden", "nature_reserve", "park", "playground", "cemetery"}},
		{Category: "public_transport", Key: "amenity", Values: []string{"bus_station", "taxi"}},
		{Category: "public_transport", Key: "public_transport", Values: []string{"station", "stop_position", "platform"}},
		{Category: "public_transport", Key: "railway", Values: []string{"station", "halt", "tram_stop"}},
	})
	if err != nil {
		panic(err)
	}
	return rs
}

// Classify returns the category of the first rule matching the tag set.
func (rs *RuleSet) Classify(tags map[string]string) (string, bool) {
	for _, r := range rs.rules {
		if slices.Contains(r.Values, tags[r.Key]) {
			return r.Category, true
		}
	}
	return "", false
}

// Has reports whether cat (case-insensitive) is a configured category.
func (rs *RuleSet) Has(cat string) bool {
	return rs.known[strings.ToLower(cat)]
}

// Normalize lowercases the requested categories and drops unknown ones,
// preserving request order and removing duplicates.
func (rs *RuleSet) Normalize(requested []string) []string {
	var out []string
	seen := make(map[string]bool, len(requested))
	for _, c := range requested {
		c = strings.ToLower(strings.TrimSpace(c))
		if rs.known[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Categories lists the configured categories in rule order.
func (rs *RuleSet) Categories() []string {
	return slices.Clone(rs.categories)
}

// RulesFor returns the rules for one category, in evaluation order.
func (rs *RuleSet) RulesFor(cat string) []Rule {
	cat = strings.ToLower(cat)
	var out []Rule
	for _, r := range rs.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}
