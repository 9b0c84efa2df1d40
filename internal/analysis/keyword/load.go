package keyword

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyKeyword = errors.New("rule keyword is empty")
	ErrNoDefault    = errors.New("default reply is required")
)

// ParseTable decodes a YAML table:
//
//	rules:
//	  - keyword: policy
//	    reply: ...
//	default: ...
//
// Keywords are trimmed and lower-cased so they match normalized input.
func ParseTable(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("decode keyword table: %w", err)
	}

	for i := range table.Rules {
		table.Rules[i].Keyword = strings.ToLower(strings.TrimSpace(table.Rules[i].Keyword))
	}

	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// LoadTable reads a YAML table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read keyword table: %w", err)
	}
	return ParseTable(data)
}

// Validate rejects tables that cannot always produce a reply.
func (t Table) Validate() error {
	for i, rule := range t.Rules {
		if rule.Keyword == "" {
			return fmt.Errorf("rule %d: %w", i, ErrEmptyKeyword)
		}
	}
	if strings.TrimSpace(t.Default) == "" {
		return ErrNoDefault
	}
	return nil
}
