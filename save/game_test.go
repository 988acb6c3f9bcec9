package save

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/spook/core"
)

// TestGameEncodeDecode verifies a full save survives the codec
func TestGameEncodeDecode(t *testing.T) {
	g := NewGame("Spook Game", 3)
	g.Data.Set("score", 42)
	g.Extensions.Sub("audio").Set("muted", true)
	GetOrCreatePlayerData(g, "p1").Set("pos", Vec3Value(core.Vec3{X: 1, Y: 2, Z: 3}))

	data, err := g.Encode()
	require.NoError(t, err)

	got, err := DecodeGame(data, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "Spook Game", got.GameName)
	assert.Equal(t, 3, got.Version)

	score, err := Read[int](got.Data, "score")
	require.NoError(t, err)
	assert.Equal(t, 42, score)

	audio, ok := got.Extensions.TrySub("audio")
	require.True(t, ok)
	muted, err := Read[bool](audio, "muted")
	require.NoError(t, err)
	assert.True(t, muted)

	assert.Equal(t, []string{"p1"}, PlayerDataUIDs(got))
	p1, ok := TryGetPlayerData(got, "p1")
	require.True(t, ok)
	pos, err := ReadVec3(p1, "pos")
	require.NoError(t, err)
	assert.Equal(t, core.Vec3{X: 1, Y: 2, Z: 3}, pos)
}

// TestGameReadMissingSections verifies absent sections come back empty
func TestGameReadMissingSections(t *testing.T) {
	doc := NewDocument()
	doc.Set(keyGameName, "bare")
	doc.Set(keyVersion, 1)

	g := &Game{}
	require.NoError(t, g.Read(doc, zerolog.Nop()))
	require.NotNil(t, g.Extensions)
	require.NotNil(t, g.Data)
	assert.Zero(t, g.Extensions.Len())
	assert.Zero(t, g.Data.Len())
	assert.Equal(t, uuid.Nil, g.ID)
}

// TestGameReadRequiresIdentity verifies name and version are mandatory
func TestGameReadRequiresIdentity(t *testing.T) {
	g := &Game{}
	assert.ErrorIs(t, g.Read(NewDocument(), zerolog.Nop()), ErrMalformed)

	doc := NewDocument()
	doc.Set(keyGameName, "x")
	assert.ErrorIs(t, g.Read(doc, zerolog.Nop()), ErrMalformed)
}

// TestPlayerDataAbsent verifies lookups on a save without players
func TestPlayerDataAbsent(t *testing.T) {
	g := NewGame("g", 1)
	_, ok := TryGetPlayerData(g, "p1")
	assert.False(t, ok)
	assert.Nil(t, PlayerDataUIDs(g))

	GetOrCreatePlayerData(g, "p2")
	GetOrCreatePlayerData(g, "p1")
	GetOrCreatePlayerData(g, "p2")
	assert.Equal(t, []string{"p2", "p1"}, PlayerDataUIDs(g))
}

// TestQuatRoundTrip verifies quaternion conversion and component checks
func TestQuatRoundTrip(t *testing.T) {
	doc := NewDocument()
	q := core.Quat{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}
	doc.Set("rot", QuatValue(q))
	doc.Set("bad", []float64{1, 2})

	got, err := ReadQuat(doc, "rot")
	require.NoError(t, err)
	assert.Equal(t, q, got)

	got, err = ReadQuat(doc, "bad")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, core.IdentityQuat, got)

	_, err = ReadVec3(doc, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
