package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"chatter", "Aquí está: {\"a\":{\"b\":2}} espero ayude", `{"a":{"b":2}}`, true},
		{"think", "<think>{no}</think>\n{\"a\":1}", `{"a":1}`, true},
		{"no object", "no puedo responder", "", false},
		{"reversed braces", "} {", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "robo en la via publica", Fold("Robo en la VÍA PÚBLICA"))
	assert.Equal(t, "nino", Fold("Niño"))
}

func TestHasWord(t *testing.T) {
	text := Fold("Se retiró del lugar tras el tiroteo en la vía pública")
	assert.True(t, HasWord(text, "tiro"), "word prefix should match")
	assert.True(t, HasWord(text, "via publica"))
	assert.False(t, HasWord(text, "iro"), "mid-word match must be rejected")
	assert.False(t, HasWord(text, "pistola", ""))
	assert.True(t, HasWord(Fold("tiro al aire"), "tiro"))
}

func TestLimitAndTruncate(t *testing.T) {
	assert.Equal(t, "abc", LimitStr("abc", 5))
	assert.Equal(t, "ví...", LimitStr("vía", 2))
	assert.Equal(t, "ví", TruncateRunes("vía", 2))
	assert.Equal(t, "vía", TruncateRunes("vía", 10))
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.json")
	require.NoError(t, Save(path, map[string]int{"a": 1}))
	assert.True(t, Exists(path))

	got, err := Load[map[string]int](path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, got)

	_, err = Load[map[string]int](filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	m.Store("a", 1)
	m.Store("b", 2)
	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())
	assert.ElementsMatch(t, []int{1, 2}, m.Values())
	m.Delete("a")
	_, ok = m.Load("a")
	assert.False(t, ok)
}
