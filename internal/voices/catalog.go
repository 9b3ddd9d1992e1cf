package voices

import "sort"

// Catalog is a read-only index over one backend's voices. Built once at
// startup; safe for concurrent reads.
type Catalog struct {
	list     []*Voice
	byName   map[string]*Voice
	byLocale map[string][]*Voice
}

func NewCatalog(list []*Voice) *Catalog {
	c := &Catalog{
		list:     list,
		byName:   make(map[string]*Voice, len(list)),
		byLocale: make(map[string][]*Voice),
	}
	for _, v := range list {
		c.byName[v.ShortName] = v
		c.byLocale[v.Locale] = append(c.byLocale[v.Locale], v)
	}
	return c
}

func (c *Catalog) Get(shortName string) (*Voice, bool) {
	v, ok := c.byName[shortName]
	return v, ok
}

func (c *Catalog) Has(shortName string) bool {
	_, ok := c.byName[shortName]
	return ok
}

func (c *Catalog) ByLocale(locale string) []*Voice {
	return c.byLocale[locale]
}

// Names returns all short-names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Voices() []*Voice { return c.list }

func (c *Catalog) Len() int { return len(c.byName) }

// Intersect returns the catalog of voices present in every input, keyed by
// short-name. Voice metadata is taken from the first catalog. Used for the
// subscription backend so that round-robin credential routing never selects a
// voice some region lacks.
func Intersect(catalogs ...*Catalog) *Catalog {
	if len(catalogs) == 0 {
		return NewCatalog(nil)
	}
	var common []*Voice
	for _, v := range catalogs[0].list {
		inAll := true
		for _, other := range catalogs[1:] {
			if !other.Has(v.ShortName) {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, v)
		}
	}
	return NewCatalog(common)
}
