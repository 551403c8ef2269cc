package elog

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultDomain is the message domain of reports that do not name one.
const DefaultDomain = "postgres"

// Translator looks up the localized form of a message format. An
// implementation returns msgid unchanged when it has no translation.
type Translator interface {
	Translate(domain, msgid string) string
	TranslatePlural(domain, singular, plural string, n int) string
}

type catalogEntry struct {
	Text   string   `yaml:"text"`
	Plural []string `yaml:"plural"`
}

type catalogFile struct {
	Locale   string                  `yaml:"locale"`
	Domain   string                  `yaml:"domain"`
	Messages map[string]catalogEntry `yaml:"messages"`
}

type catalogKey struct {
	domain string
	msgid  string
}

// Catalog holds message translations for any number of locales and
// domains. It is safe for concurrent use; Locale returns the
// Translator for one locale.
type Catalog struct {
	mu      sync.RWMutex
	tags    []language.Tag
	entries map[language.Tag]map[catalogKey]catalogEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[language.Tag]map[catalogKey]catalogEntry)}
}

// Load adds the translations of one YAML catalog file:
//
//	locale: de
//	domain: postgres
//	messages:
//	  "relation \"%s\" does not exist":
//	    text: "Relation »%s« existiert nicht"
//	  "%d row":
//	    plural: ["%d Zeile", "%d Zeilen"]
func (c *Catalog) Load(r io.Reader) error {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("elog: decode catalog: %w", err)
	}
	tag, err := language.Parse(f.Locale)
	if err != nil {
		return fmt.Errorf("elog: catalog locale: %w", err)
	}
	if f.Domain == "" {
		f.Domain = DefaultDomain
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[tag]
	if !ok {
		m = make(map[catalogKey]catalogEntry, len(f.Messages))
		c.entries[tag] = m
		c.tags = append(c.tags, tag)
	}
	for msgid, e := range f.Messages {
		m[catalogKey{f.Domain, msgid}] = e
	}
	return nil
}

// Locale returns a Translator for the best available match to the
// given locale names, in preference order. With no match the
// Translator returns messages untranslated.
func (c *Catalog) Locale(preferred ...string) Translator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := make([]language.Tag, 0, len(preferred))
	for _, p := range preferred {
		if tag, err := language.Parse(p); err == nil {
			want = append(want, tag)
		}
	}
	if len(c.tags) == 0 || len(want) == 0 {
		return &localeTranslator{catalog: c, tag: language.Und}
	}
	// The first supported tag is the fallback the matcher picks when
	// nothing fits, so put the untranslated locale there.
	supported := append([]language.Tag{language.Und}, c.tags...)
	_, idx, conf := language.NewMatcher(supported).Match(want...)
	if conf == language.No || idx == 0 {
		return &localeTranslator{catalog: c, tag: language.Und}
	}
	return &localeTranslator{catalog: c, tag: supported[idx]}
}

func (c *Catalog) lookup(tag language.Tag, domain, msgid string) (catalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[tag][catalogKey{domain, msgid}]
	return e, ok
}

type localeTranslator struct {
	catalog *Catalog
	tag     language.Tag
}

func (t *localeTranslator) Translate(domain, msgid string) string {
	if e, ok := t.catalog.lookup(t.tag, domain, msgid); ok && e.Text != "" {
		return e.Text
	}
	return msgid
}

func (t *localeTranslator) TranslatePlural(domain, singular, plural string, n int) string {
	if e, ok := t.catalog.lookup(t.tag, domain, singular); ok && len(e.Plural) == 2 {
		if n == 1 {
			return e.Plural[0]
		}
		return e.Plural[1]
	}
	if n == 1 {
		return singular
	}
	return plural
}
