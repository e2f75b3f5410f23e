package common

import "strings"

// Move packs from, to, moving piece, captured piece and promotion into 21
// bits. MoveEmpty doubles as "no move" everywhere.
type Move int32

const MoveEmpty Move = 0

func makeMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^ (capturedPiece << 15))
}

func makePawnMove(from, to, capturedPiece, promotion int) Move {
	return Move(from ^ (to << 6) ^ (Pawn << 12) ^ (capturedPiece << 15) ^ (promotion << 18))
}

func (m Move) From() int {
	return int(m & 63)
}

func (m Move) To() int {
	return int((m >> 6) & 63)
}

func (m Move) MovingPiece() int {
	return int((m >> 12) & 7)
}

func (m Move) CapturedPiece() int {
	return int((m >> 15) & 7)
}

func (m Move) Promotion() int {
	return int((m >> 18) & 7)
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var sPromotion = ""
	if m.Promotion() != Empty {
		sPromotion = string("nbrq"[m.Promotion()-Knight])
	}
	return SquareName(m.From()) + SquareName(m.To()) + sPromotion
}

// MakeMoveLAN plays a move given in long algebraic notation ("e2e4", "e7e8q").
func (p *Position) MakeMoveLAN(lan string) (Position, bool) {
	var buffer [MaxMoves]OrderedMove
	for _, om := range p.GenerateMoves(buffer[:]) {
		var mv = om.Move
		if strings.EqualFold(mv.String(), lan) {
			var newPosition = Position{}
			if p.MakeMove(mv, &newPosition) {
				return newPosition, true
			}
			return Position{}, false
		}
	}
	return Position{}, false
}

// ParseMoveLAN resolves a LAN string to a legal move without playing it.
func (p *Position) ParseMoveLAN(lan string) Move {
	var buffer [MaxMoves]OrderedMove
	var child Position
	for _, om := range p.GenerateMoves(buffer[:]) {
		if strings.EqualFold(om.Move.String(), lan) &&
			p.MakeMove(om.Move, &child) {
			return om.Move
		}
	}
	return MoveEmpty
}
