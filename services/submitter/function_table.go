package submitter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bitcoin-sv/btcx/errors"
)

// FunctionEntry is a relay circuit that attests up to MaxHeaders headers.
type FunctionEntry struct {
	ID         string
	MaxHeaders uint32
}

// FunctionTable maps header counts to relay function ids. Entry i covers
// the counts in (entry[i-1].MaxHeaders, entry[i].MaxHeaders].
type FunctionTable struct {
	entries []FunctionEntry
}

// NewFunctionTable parses "id:maxHeaders" entries.
func NewFunctionTable(raw []string) (*FunctionTable, error) {
	entries := make([]FunctionEntry, 0, len(raw))

	for _, entry := range raw {
		id, count, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || id == "" {
			return nil, errors.NewConfigurationError("function table entry %q is not id:maxHeaders", entry)
		}

		n, err := strconv.ParseUint(count, 10, 32)
		if err != nil {
			return nil, errors.NewConfigurationError("function table entry %q has an invalid header count", entry, err)
		}

		if n == 0 {
			return nil, errors.NewConfigurationError("function table entry %q covers no headers", entry)
		}

		entries = append(entries, FunctionEntry{ID: id, MaxHeaders: uint32(n)})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MaxHeaders < entries[j].MaxHeaders
	})

	seen := make(map[string]struct{}, len(entries))

	for i, e := range entries {
		if i > 0 && entries[i-1].MaxHeaders == e.MaxHeaders {
			return nil, errors.NewConfigurationError("functions %s and %s both cover %d headers", entries[i-1].ID, e.ID, e.MaxHeaders)
		}

		if _, ok := seen[e.ID]; ok {
			return nil, errors.NewConfigurationError("function %s is listed twice", e.ID)
		}

		seen[e.ID] = struct{}{}
	}

	return &FunctionTable{entries: entries}, nil
}

// Select returns the function with the smallest MaxHeaders at or above count.
func (ft *FunctionTable) Select(count uint32) (string, error) {
	i := sort.Search(len(ft.entries), func(i int) bool {
		return ft.entries[i].MaxHeaders >= count
	})

	if count == 0 || i == len(ft.entries) {
		return "", errors.NewInvalidArgumentError("no function attests %d headers", count)
	}

	return ft.entries[i].ID, nil
}

// Covers reports whether id is the function selected for count.
func (ft *FunctionTable) Covers(id string, count uint32) bool {
	selected, err := ft.Select(count)

	return err == nil && selected == id
}

func (ft *FunctionTable) Entries() []FunctionEntry {
	return append([]FunctionEntry(nil), ft.entries...)
}
