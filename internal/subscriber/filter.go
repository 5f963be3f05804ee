package subscriber

import (
	"fmt"
	"strings"

	"binlog_row_publisher/internal/event"
)

type strset map[string]struct{}

// toSet returns nil for an empty list, which every check treats as "no
// filter".
func toSet(list []string, lower bool) strset {
	out := strset{}
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		out[v] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s strset) has(v string) bool {
	_, ok := s[v]
	return ok
}

type Filter struct {
	dbs       strset
	tables    strset
	ids       strset
	ops       strset
	fieldsAny strset
	fieldsAll strset
	changeAny strset
	changeAll strset

	excludeDBs    strset
	excludeTables strset
}

func NewFilter(cfg *Config) *Filter {
	return &Filter{
		dbs:           toSet(cfg.FilterDBs, false),
		tables:        toSet(cfg.FilterTables, false),
		ids:           toSet(cfg.FilterIDs, false),
		ops:           toSet(cfg.FilterOps, true),
		fieldsAny:     toSet(cfg.FilterFieldsAny, false),
		fieldsAll:     toSet(cfg.FilterFieldsAll, false),
		changeAny:     toSet(cfg.FilterChangeAny, false),
		changeAll:     toSet(cfg.FilterChangeAll, false),
		excludeDBs:    toSet(cfg.ExcludeDBs, false),
		excludeTables: toSet(cfg.ExcludeTables, false),
	}
}

// Matches applies excludes first, then every include filter. Field filters
// look at the keys of the event's projected image, change filters at the
// columns an update changed.
func (f *Filter) Matches(ev *event.RowEvent) bool {
	if f.excludeDBs.has(ev.DB) || f.excludeTables.has(ev.Table) {
		return false
	}
	if f.dbs != nil && !f.dbs.has(ev.DB) {
		return false
	}
	if f.tables != nil && !f.tables.has(ev.Table) {
		return false
	}
	if f.ids != nil && !f.ids.has(rowKeyToString(ev.RowKey)) {
		return false
	}
	if f.ops != nil && !f.ops.has(strings.ToLower(ev.Op)) {
		return false
	}

	names := ev.Image().Names()
	if f.fieldsAny != nil && !hasAny(names, f.fieldsAny) {
		return false
	}
	if f.fieldsAll != nil && !hasAll(names, f.fieldsAll) {
		return false
	}

	if f.changeAny != nil || f.changeAll != nil {
		changed := make([]string, len(ev.Changes))
		for i, c := range ev.Changes {
			changed[i] = c.Column
		}
		if f.changeAny != nil && !hasAny(changed, f.changeAny) {
			return false
		}
		if f.changeAll != nil && !hasAll(changed, f.changeAll) {
			return false
		}
	}
	return true
}

func rowKeyToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func hasAny(names []string, cols strset) bool {
	for _, n := range names {
		if cols.has(n) {
			return true
		}
	}
	return false
}

func hasAll(names []string, cols strset) bool {
	seen := toSet(names, false)
	for c := range cols {
		if !seen.has(c) {
			return false
		}
	}
	return true
}
