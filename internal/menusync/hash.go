package menusync

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"cardapio/internal/models"
)

type hashPart struct {
	id  int64
	key string
}

// ComputeHash fingerprints the visibility state of a menu. It depends only on
// the set of ids and their active/available flags, never on order or prices.
func ComputeHash(items []models.MenuItem) string {
	parts := make([]hashPart, 0, len(items))
	for _, item := range items {
		parts = append(parts, hashPart{
			id:  item.ID,
			key: strconv.FormatInt(item.ID, 10) + "-" + strconv.FormatBool(item.Active) + "-" + strconv.FormatBool(item.Available),
		})
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].id != parts[j].id {
			return parts[i].id < parts[j].id
		}
		return parts[i].key < parts[j].key
	})

	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = p.key
	}
	sum := sha256.Sum256([]byte(strings.Join(keys, "|")))
	return hex.EncodeToString(sum[:])
}
