package detector

import "iter"

type Change struct {
	Value     any
	LastValue any
	FirstTime bool
}

// Changes is an ordered map from input property name to the change observed
// during a single check pass. A nil *Changes means nothing to report.
type Changes struct {
	keys    []string
	entries map[string]Change
}

func NewChanges() *Changes {
	return &Changes{entries: map[string]Change{}}
}

// Set records a change, keeping the position of the first insertion.
func (c *Changes) Set(property string, change Change) {
	if _, ok := c.entries[property]; !ok {
		c.keys = append(c.keys, property)
	}
	c.entries[property] = change
}

func (c *Changes) Get(property string) (Change, bool) {
	if c == nil {
		return Change{}, false
	}
	change, ok := c.entries[property]
	return change, ok
}

func (c *Changes) Has(property string) bool {
	_, ok := c.Get(property)
	return ok
}

func (c *Changes) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

func (c *Changes) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

func (c *Changes) All() iter.Seq2[string, Change] {
	return func(yield func(string, Change) bool) {
		if c == nil {
			return
		}
		for _, key := range c.keys {
			if !yield(key, c.entries[key]) {
				return
			}
		}
	}
}
