package save

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Top-level document keys
const (
	keySaveID     = "save_id"
	keyGameName   = "game_name"
	keyVersion    = "version"
	keyExtensions = "extensions"
	keyData       = "data"
)

// Game is one save: identity, per-extension sections and shared data
type Game struct {
	ID         uuid.UUID
	GameName   string
	Version    int
	Extensions *Document
	Data       *Document
}

// NewGame creates an empty save
func NewGame(name string, version int) *Game {
	return &Game{
		ID:         uuid.New(),
		GameName:   name,
		Version:    version,
		Extensions: NewDocument(),
		Data:       NewDocument(),
	}
}

// Write lays the game out in doc
func (g *Game) Write(doc *Document) {
	doc.Set(keySaveID, g.ID.String())
	doc.Set(keyGameName, g.GameName)
	doc.Set(keyVersion, g.Version)
	doc.Set(keyExtensions, g.Extensions)
	doc.Set(keyData, g.Data)
}

// Read fills the game from doc; missing sections come back empty
func (g *Game) Read(doc *Document, log zerolog.Logger) error {
	name, err := Read[string](doc, keyGameName)
	if err != nil {
		return eris.Wrap(ErrMalformed, "missing game name")
	}
	version, err := Read[int](doc, keyVersion)
	if err != nil {
		return eris.Wrap(ErrMalformed, "missing version")
	}
	g.GameName = name
	g.Version = version
	g.ID = uuid.Nil
	if raw, err := Read[string](doc, keySaveID); err == nil {
		if id, err := uuid.Parse(raw); err == nil {
			g.ID = id
		} else {
			log.Warn().Str("save_id", raw).Msg("unparseable save id")
		}
	}

	if ext, ok := doc.TrySub(keyExtensions); ok {
		g.Extensions = ext
	} else {
		log.Warn().Str("game", name).Msg("save has no extensions section")
		g.Extensions = NewDocument()
	}
	if data, ok := doc.TrySub(keyData); ok {
		g.Data = data
	} else {
		log.Warn().Str("game", name).Msg("save has no data section")
		g.Data = NewDocument()
	}
	return nil
}

// Encode serializes the game to CBOR
func (g *Game) Encode() ([]byte, error) {
	doc := NewDocument()
	g.Write(doc)
	data, err := cbor.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "encode save")
	}
	return data, nil
}

// DecodeGame parses a CBOR save
func DecodeGame(data []byte, log zerolog.Logger) (*Game, error) {
	doc := NewDocument()
	if err := doc.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	g := &Game{}
	if err := g.Read(doc, log); err != nil {
		return nil, err
	}
	return g, nil
}
