package party

import (
	"fmt"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
)

var (
	ErrSessionStarted = fmt.Errorf("session already started")
	ErrAlreadyJoined  = fmt.Errorf("player id already joined")
)

// Player is one participant. The host's directory holds the
// authoritative copy; guests hold replicas rebuilt from snapshots.
type Player struct {
	ID   string
	Name string
	Host bool

	Coins   int
	Score   int
	Correct int
	Outfit  []catalog.Item
	Total   int
}

// Spent sums the outfit's prices.
func (p *Player) Spent() int {
	spent := 0
	for _, item := range p.Outfit {
		spent += item.Price
	}
	return spent
}

// ToggleItem selects or deselects an item under the budget rules:
// tapping a selected item removes it, selecting in an occupied category
// swaps the old item out, and the new total may never exceed Coins.
// Reports whether the outfit changed.
func (p *Player) ToggleItem(item catalog.Item) bool {
	for i, worn := range p.Outfit {
		if worn.ID == item.ID {
			p.Outfit = append(p.Outfit[:i], p.Outfit[i+1:]...)
			return true
		}
	}

	freed := 0
	replaceAt := -1
	for i, worn := range p.Outfit {
		if worn.Category == item.Category {
			freed = worn.Price
			replaceAt = i
			break
		}
	}

	if p.Spent()-freed+item.Price > p.Coins {
		return false
	}

	if replaceAt >= 0 {
		p.Outfit = append(p.Outfit[:replaceAt], p.Outfit[replaceAt+1:]...)
	}
	p.Outfit = append(p.Outfit, item)
	return true
}

func (p *Player) outfitIDs() []string {
	ids := make([]string, 0, len(p.Outfit))
	for _, item := range p.Outfit {
		ids = append(ids, item.ID)
	}
	return ids
}

func (p *Player) info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:      p.ID,
		Name:    p.Name,
		Host:    p.Host,
		Coins:   p.Coins,
		Score:   p.Score,
		Correct: p.Correct,
		Outfit:  p.outfitIDs(),
		Total:   p.Total,
	}
}

// Directory is the session roster in join order. It is only ever
// touched from the engine goroutine, so it carries no lock.
type Directory struct {
	players []*Player
	started bool
}

func NewDirectory() *Directory {
	return &Directory{}
}

// Join admits a player. Once the session has started the roster is
// closed and joining fails with ErrSessionStarted.
func (d *Directory) Join(id, name string, host bool) (*Player, error) {
	if d.started {
		return nil, ErrSessionStarted
	}
	if _, ok := d.Player(id); ok {
		return nil, ErrAlreadyJoined
	}

	p := &Player{ID: id, Name: name, Host: host}
	d.players = append(d.players, p)
	return p, nil
}

func (d *Directory) Remove(id string) bool {
	for i, p := range d.players {
		if p.ID == id {
			d.players = append(d.players[:i], d.players[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Directory) Player(id string) (*Player, bool) {
	for _, p := range d.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (d *Directory) Index(id string) int {
	for i, p := range d.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (d *Directory) At(i int) *Player {
	return d.players[i]
}

func (d *Directory) Len() int {
	return len(d.players)
}

func (d *Directory) Players() []*Player {
	return d.players
}

// Start closes the roster.
func (d *Directory) Start() { d.started = true }

// Reopen readmits joins, used when the party returns to the lobby.
func (d *Directory) Reopen() { d.started = false }

func (d *Directory) Started() bool { return d.started }

// ResetGame zeroes per-game state, keeping the roster.
func (d *Directory) ResetGame() {
	for _, p := range d.players {
		p.Coins = 0
		p.Score = 0
		p.Correct = 0
		p.Outfit = nil
		p.Total = 0
	}
}

// Snapshot projects the roster onto the wire.
func (d *Directory) Snapshot() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(d.players))
	for _, p := range d.players {
		infos = append(infos, p.info())
	}
	return infos
}

// Replace rebuilds the roster from a host snapshot. Guests call this
// on every roster-bearing message so replicas converge even across
// departures.
func (d *Directory) Replace(infos []protocol.PlayerInfo) {
	if len(infos) == 0 {
		return
	}

	players := make([]*Player, 0, len(infos))
	for _, info := range infos {
		players = append(players, &Player{
			ID:      info.ID,
			Name:    info.Name,
			Host:    info.Host,
			Coins:   info.Coins,
			Score:   info.Score,
			Correct: info.Correct,
			Outfit:  catalog.ItemsByIDs(info.Outfit),
			Total:   info.Total,
		})
	}
	d.players = players
}
