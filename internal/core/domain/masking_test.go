package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskType_Valid(t *testing.T) {
	t.Parallel()
	for _, m := range []MaskType{MaskNone, MaskRedact, MaskHash, MaskPartial, MaskNull} {
		assert.True(t, m.Valid(), "expected %q to be valid", m)
	}
	for _, m := range []MaskType{"encrypt", "REDACT", "sha256"} {
		assert.False(t, m.Valid(), "expected %q to be invalid", m)
	}
}

func TestMaskType_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mask  MaskType
		value any
		want  any
	}{
		{"redact string", MaskRedact, "alice@example.com", "***"},
		{"redact number", MaskRedact, 42, "***"},
		{"partial long", MaskPartial, "1234567890", "******7890"},
		{"partial short", MaskPartial, "abc", "***abc"},
		{"partial unicode", MaskPartial, "ñandú-4321", "******4321"},
		{"null", MaskNull, "secret", nil},
		{"none", MaskNone, "plain", "plain"},
		{"nil stays nil", MaskRedact, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mask.Apply(tt.value))
		})
	}
}

func TestMaskType_ApplyHash(t *testing.T) {
	t.Parallel()

	h, ok := MaskHash.Apply("alice@example.com").(string)
	assert.True(t, ok)
	assert.Len(t, h, 64)
	assert.Equal(t, h, MaskHash.Apply("alice@example.com"))
	assert.NotEqual(t, h, MaskHash.Apply("bob@example.com"))
	assert.Equal(t, MaskHash.Apply(12345), MaskHash.Apply("12345"))
}

func TestColumnMasks_Apply(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{
		{"id": 1, "email": "alice@example.com", "phone": "5551234567"},
		{"id": 2, "email": nil, "phone": "5559876543"},
	}
	ColumnMasks{"email": MaskRedact, "phone": MaskPartial, "missing": MaskNull}.Apply(rows)

	assert.Equal(t, "***", rows[0]["email"])
	assert.Nil(t, rows[1]["email"])
	assert.Equal(t, "******4567", rows[0]["phone"])
	assert.Equal(t, 1, rows[0]["id"])
	assert.NotContains(t, rows[0], "missing")
}

func TestColumnMasks_ApplyEmpty(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{{"email": "alice@example.com"}}
	ColumnMasks(nil).Apply(rows)
	assert.Equal(t, "alice@example.com", rows[0]["email"])
}
