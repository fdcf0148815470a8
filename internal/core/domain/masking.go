package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaskType is how a sensitive column is rewritten before results leave the
// service.
type MaskType string

const (
	MaskNone    MaskType = ""
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

func (m MaskType) Valid() bool {
	switch m {
	case MaskNone, MaskRedact, MaskHash, MaskPartial, MaskNull:
		return true
	}
	return false
}

// Apply masks a single value. NULLs stay NULL whatever the mask.
func (m MaskType) Apply(value any) any {
	if value == nil {
		return nil
	}
	switch m {
	case MaskRedact:
		return "***"
	case MaskHash:
		sum := sha256.Sum256([]byte(fmt.Sprint(value)))
		return hex.EncodeToString(sum[:])
	case MaskPartial:
		return keepLast(fmt.Sprint(value), 4)
	case MaskNull:
		return nil
	default:
		return value
	}
}

func keepLast(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return "***" + s
	}
	return strings.Repeat("*", len(runes)-n) + string(runes[len(runes)-n:])
}

// ColumnMasks maps a result column name to its mask. Matching is by column
// name only, whatever table the column came from.
type ColumnMasks map[string]MaskType

// Apply rewrites rows in place.
func (cm ColumnMasks) Apply(rows []map[string]any) {
	if len(cm) == 0 {
		return
	}
	for _, row := range rows {
		for col, m := range cm {
			if v, ok := row[col]; ok {
				row[col] = m.Apply(v)
			}
		}
	}
}
