package docs

import (
	"fmt"
	"strings"
)

// Topic is one article shown by `reportd docs <name>`.
type Topic struct {
	Name    string
	Title   string
	Summary string
	Content string // plain text, starts with Title
}

// All returns every topic in display order.
func All() []Topic {
	return topics
}

// Names lists the topic slugs in display order.
func Names() []string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names
}

// Get looks up a topic by name, ignoring case and surrounding space.
func Get(name string) (Topic, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, t := range topics {
		if t.Name == key {
			return t, nil
		}
	}
	return Topic{}, fmt.Errorf("unknown topic %q (have %s), run 'reportd docs' for summaries",
		name, strings.Join(Names(), ", "))
}
