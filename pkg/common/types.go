package common

import "time"

const (
	WhiteKingSide = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

// Position is a copy-make board: MakeMove fills a caller-provided child
// instead of mutating the receiver.
type Position struct {
	Pawns, Knights, Bishops, Rooks, Queens, Kings, White, Black, Checkers uint64
	WhiteMove                                                             bool
	CastleRights, Rule50, EpSquare                                        int
	Key                                                                   uint64
	LastMove                                                              Move
}

const InitialPositionFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const (
	Empty int = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

const MaxMoves = 256

const (
	FileA = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	Rank1 = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

const SquareNone = -1

const (
	SquareA1 = iota
	SquareB1
	SquareC1
	SquareD1
	SquareE1
	SquareF1
	SquareG1
	SquareH1
	SquareA2
	SquareB2
	SquareC2
	SquareD2
	SquareE2
	SquareF2
	SquareG2
	SquareH2
	SquareA3
	SquareB3
	SquareC3
	SquareD3
	SquareE3
	SquareF3
	SquareG3
	SquareH3
	SquareA4
	SquareB4
	SquareC4
	SquareD4
	SquareE4
	SquareF4
	SquareG4
	SquareH4
	SquareA5
	SquareB5
	SquareC5
	SquareD5
	SquareE5
	SquareF5
	SquareG5
	SquareH5
	SquareA6
	SquareB6
	SquareC6
	SquareD6
	SquareE6
	SquareF6
	SquareG6
	SquareH6
	SquareA7
	SquareB7
	SquareC7
	SquareD7
	SquareE7
	SquareF7
	SquareG7
	SquareH7
	SquareA8
	SquareB8
	SquareC8
	SquareD8
	SquareE8
	SquareF8
	SquareG8
	SquareH8
)

// OrderedMove pairs a move with its ordering key so pickers can sort in place.
type OrderedMove struct {
	Move Move
	Key  int32
}

type LimitsType struct {
	Ponder         bool
	Infinite       bool
	WhiteTime      int
	BlackTime      int
	WhiteIncrement int
	BlackIncrement int
	MoveTime       int
	MovesToGo      int
	Depth          int
	Nodes          int
	Mate           int
	SearchMoves    []Move
}

func (lt *LimitsType) UseTimeManagement() bool {
	return !(lt.Infinite || lt.MoveTime > 0 || lt.Depth > 0 || lt.Nodes > 0)
}

type SearchParams struct {
	Positions []Position
	Limits    LimitsType
	Progress  func(si SearchInfo)
}

type SearchInfo struct {
	Score      UciScore
	Depth      int
	SelDepth   int
	MultiPV    int
	Bound      int
	Nodes      int64
	Time       time.Duration
	MainLine   []Move
	PonderMove Move
}

// Bound values for SearchInfo, used only for "lowerbound"/"upperbound" info
// output during an aspiration fail high/low.
const (
	BoundNone = iota
	BoundLower
	BoundUpper
)

type UciScore struct {
	Centipawns int
	Mate       int
}
