package banlist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bisq-network/bisqeasyd/internal/core/ports"
)

type banList struct {
	entries map[string]struct{}
}

// NewFromFile loads the moderation blocklist from a JSON file holding an
// array of banned payment account identifiers. A missing file yields an
// empty list.
func NewFromFile(path string) (ports.BanList, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewFromEntries(nil), nil
		}
		return nil, fmt.Errorf("reading ban list: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(buf, &entries); err != nil {
		return nil, fmt.Errorf("parsing ban list: %w", err)
	}

	return NewFromEntries(entries), nil
}

// NewFromEntries returns a ban list holding the given identifiers.
func NewFromEntries(entries []string) ports.BanList {
	normalized := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		normalized[normalize(entry)] = struct{}{}
	}
	return &banList{entries: normalized}
}

func (b *banList) IsBanned(accountData string) bool {
	_, ok := b.entries[normalize(accountData)]
	return ok
}

func normalize(entry string) string {
	return strings.ToLower(strings.TrimSpace(entry))
}
