package stages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Order(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{Applied, Screening, Interview, Offer, Hired, Rejected}, r.IDs())
	assert.Equal(t, 6, r.Len())
	assert.Equal(t, 2, r.Rank(Interview))
	assert.Equal(t, -1, r.Rank("nope"))
}

func TestNew_SortsByRank(t *testing.T) {
	r, err := New([]Stage{
		{ID: "c", Rank: 3},
		{ID: "a", Rank: 1},
		{ID: "b", Rank: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]Stage{{ID: "a"}, {ID: "a", Rank: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNew_RejectsEmpty(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New([]Stage{{ID: ""}})
	require.Error(t, err)
}

func TestIsValid(t *testing.T) {
	r, err := FromIDs("applied", "screening")
	require.NoError(t, err)

	assert.True(t, r.IsValid("applied"))
	assert.False(t, r.IsValid("Applied"))
	assert.False(t, r.IsValid(""))
}

func TestAll_ReturnsCopy(t *testing.T) {
	r := Default()
	all := r.All()
	all[0].ID = "mutated"

	s, ok := r.Get(Applied)
	require.True(t, ok)
	assert.Equal(t, Applied, s.ID)
	assert.Equal(t, Applied, r.All()[0].ID)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.yaml")
	content := `stages:
  - id: screening
    name: Screening
    rank: 1
  - id: applied
    name: Applied
    rank: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"applied", "screening"}, r.IDs())

	s, ok := r.Get("screening")
	require.True(t, ok)
	assert.Equal(t, "Screening", s.Name)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read stage catalog")
}

func TestPolicy_UnrestrictedAllowsReverse(t *testing.T) {
	p := Unrestricted()
	assert.False(t, p.Restricted())
	assert.True(t, p.Allows(Hired, Screening))
	assert.True(t, p.Allows(Rejected, Applied))

	var nilPolicy *Policy
	assert.True(t, nilPolicy.Allows(Hired, Applied))
}

func TestPolicy_Strict(t *testing.T) {
	p := NewPolicy(map[string][]string{
		Applied:   {Screening, Rejected},
		Screening: {Interview, Rejected},
	})

	assert.True(t, p.Restricted())
	assert.True(t, p.Allows(Applied, Screening))
	assert.False(t, p.Allows(Applied, Hired))
	assert.False(t, p.Allows(Hired, Applied))
}
