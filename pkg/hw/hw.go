// Package hw defines the opaque board and channel identifiers the rest of
// the compiler keys events, lanes, and instructions on.
package hw

import "fmt"

// Board identifies a physical controller board: the master "main" board or
// one of the slave "rwgN" boards.
type Board string

// MainBoard is the fixed name of the master board.
const MainBoard Board = "main"

func (b Board) String() string { return string(b) }

// Kind distinguishes the two channel families a board can expose.
type Kind uint8

const (
	Digital Kind = 0
	Waveform Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Digital:
		return "digital"
	case Waveform:
		return "waveform"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// maxLocalID is the largest local_id a 14-bit field can hold.
const maxLocalID = 1<<14 - 1

// Channel is a typed, hashable hardware output: a (board, kind, local_id)
// triple. Equality is structural on all three fields.
type Channel struct {
	Board   Board
	Kind    Kind
	LocalID uint16
}

// NewChannel validates and constructs a Channel.
func NewChannel(board Board, kind Kind, localID uint16) (Channel, error) {
	if localID > maxLocalID {
		return Channel{}, fmt.Errorf("hw: local_id %d exceeds 14-bit range (max %d)", localID, maxLocalID)
	}
	return Channel{Board: board, Kind: kind, LocalID: localID}, nil
}

func (c Channel) String() string {
	return fmt.Sprintf("%s.%s[%d]", c.Board, c.Kind, c.LocalID)
}

// BoardRegistry assigns dense 16-bit indices to boards in first-sight order,
// so Channel.Pack has a stable board slot without requiring every board to
// be enumerated up front.
type BoardRegistry struct {
	index map[Board]uint16
	names []Board
}

// NewBoardRegistry creates an empty registry.
func NewBoardRegistry() *BoardRegistry {
	return &BoardRegistry{index: make(map[Board]uint16)}
}

// IndexOf returns the dense index for board, assigning a new one on first
// use. Indices are stable for the lifetime of the registry.
func (r *BoardRegistry) IndexOf(b Board) (uint16, error) {
	if idx, ok := r.index[b]; ok {
		return idx, nil
	}
	if len(r.names) >= 1<<16 {
		return 0, fmt.Errorf("hw: board registry exhausted (more than 65536 boards)")
	}
	idx := uint16(len(r.names))
	r.index[b] = idx
	r.names = append(r.names, b)
	return idx, nil
}

// Board returns the board registered at idx, or false if none.
func (r *BoardRegistry) Board(idx uint16) (Board, bool) {
	if int(idx) >= len(r.names) {
		return "", false
	}
	return r.names[idx], true
}

// Pack encodes (board_index, kind, local_id) into the wire-stable 32-bit
// layout: board:16 | kind:2 | local_id:14.
func Pack(boardIdx uint16, kind Kind, localID uint16) uint32 {
	return uint32(boardIdx)<<16 | uint32(kind&0x3)<<14 | uint32(localID&maxLocalID)
}

// Unpack is the exact inverse of Pack.
func Unpack(packed uint32) (boardIdx uint16, kind Kind, localID uint16) {
	boardIdx = uint16(packed >> 16)
	kind = Kind((packed >> 14) & 0x3)
	localID = uint16(packed & maxLocalID)
	return
}

// Pack encodes this channel's packed 32-bit identifier given a registry
// that has already seen (or will assign) its board.
func (c Channel) Pack(r *BoardRegistry) (uint32, error) {
	idx, err := r.IndexOf(c.Board)
	if err != nil {
		return 0, err
	}
	return Pack(idx, c.Kind, c.LocalID), nil
}
