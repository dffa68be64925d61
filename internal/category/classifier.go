// Package category assigns a closed-set label to a transaction note.
//
// Rules are evaluated in a fixed order and the first rule with a keyword
// contained in the note wins. Matching is a case-insensitive substring test,
// so keywords that overlap between rules resolve to the earlier rule:
//
//	food → transport → communications → income → other (catch-all)
package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"hisob/internal/core"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category core.Category
	Keywords []string
}

// Classifier holds the ordered rule list. It is immutable after construction.
type Classifier struct {
	rules []Rule
}

var defaultRules = []Rule{
	{
		Category: core.CategoryFood,
		Keywords: []string{
			"kofe", "coffee", "choy", "non", "ovqat", "nonushta", "tushlik", "kechki ovqat",
			"restoran", "kafe", "cafe", "oshxona", "go'sht", "gosht", "sut", "meva",
			"sabzavot", "lavash", "burger", "pizza", "somsa", "shashlik", "produkt",
			"кофе", "чай", "еда", "обед", "ужин", "завтрак", "продукт", "кафе",
		},
	},
	{
		Category: core.CategoryTransport,
		Keywords: []string{
			"taksi", "taxi", "avtobus", "metro", "benzin", "yoqilg'i", "metan", "propan",
			"yandex go", "uber", "poezd", "parkovka", "avtomobil", "mashina",
			"такси", "бензин", "автобус", "метро", "парковка",
		},
	},
	{
		Category: core.CategoryCommunications,
		Keywords: []string{
			"telefon", "internet", "mobil", "paynet", "beeline", "ucell", "uzmobile",
			"mobiuz", "tarif", "aloqa", "связь", "телефон", "интернет",
		},
	},
	{
		Category: core.CategoryIncome,
		Keywords: []string{
			"oylik", "maosh", "avans", "premiya", "bonus", "stipendiya", "daromad",
			"salary", "зарплата", "аванс", "премия",
		},
	},
}

// Default returns the built-in classifier.
func Default() *Classifier {
	rules := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		rules[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching category, or the catch-all label.
func (c *Classifier) Classify(note string) core.Category {
	low := strings.ToLower(note)
	if strings.TrimSpace(low) == "" {
		return core.CategoryOther
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(low, kw) {
				return r.Category
			}
		}
	}
	return core.CategoryOther
}

// Rules returns a copy of the ordered rule list.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// fileConfig is the structure of the keywords YAML file.
type fileConfig struct {
	Categories []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"categories"`
}

// LoadFile returns the default classifier extended with keywords from a YAML file:
//
//	categories:
//	  - name: food
//	    keywords: [samsa, plov]
//
// Names must belong to the closed set; the rule order never changes.
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile over raw YAML bytes.
func Parse(data []byte) (*Classifier, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse categories yaml: %w", err)
	}

	c := Default()
	index := map[core.Category]int{}
	for i, r := range c.rules {
		index[r.Category] = i
	}

	for _, entry := range cfg.Categories {
		cat, err := core.ParseCategory(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", entry.Name, err)
		}
		if cat == core.CategoryOther {
			return nil, fmt.Errorf("category %q is the catch-all and takes no keywords", entry.Name)
		}
		i := index[cat]
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			c.rules[i].Keywords = append(c.rules[i].Keywords, kw)
		}
	}
	return c, nil
}
