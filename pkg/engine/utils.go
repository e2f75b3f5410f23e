package engine

import (
	. "github.com/meridian-engine/meridian/pkg/common"
)

var passedPawnMask [2][64]uint64 // [white][square]

func init() {
	for sq := 0; sq < 64; sq++ {
		var b = SquareMask[sq]
		var adj = b | Left(b) | Right(b)
		passedPawnMask[1][sq] = UpFill(Up(adj))
		passedPawnMask[0][sq] = DownFill(Down(adj))
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isCaptureOrPromotion(move Move) bool {
	return move.CapturedPiece() != Empty ||
		move.Promotion() != Empty
}

// isSpecialMove covers promotions, castling and en passant.
func isSpecialMove(p *Position, move Move) bool {
	return move.Promotion() != Empty ||
		IsCastleMove(move) ||
		(move.MovingPiece() == Pawn && move.CapturedPiece() == Pawn &&
			p.EpSquare == move.To())
}

func isPawnPushTo7th(move Move, side bool) bool {
	if move.MovingPiece() != Pawn {
		return false
	}
	if side {
		return Rank(move.To()) == Rank7
	}
	return Rank(move.To()) == Rank2
}

func isPassedPawnPush(p *Position, move Move) bool {
	if move.MovingPiece() != Pawn {
		return false
	}
	var side = p.WhiteMove
	var enemyPawns = p.Pawns & p.PiecesByColor(!side)
	return passedPawnMask[boolToInt(side)][move.To()]&enemyPawns == 0
}

func hasPawnOn7th(p *Position, side bool) bool {
	if side {
		return p.Pawns&p.White&Rank7Mask != 0
	}
	return p.Pawns&p.Black&Rank2Mask != 0
}

func nonPawnMaterial(p *Position, side bool) bool {
	return (p.Knights|p.Bishops|p.Rooks|p.Queens)&p.PiecesByColor(side) != 0
}

// isPawnEndgameCapture detects a capture that trades off the last non-pawn
// piece on the board.
func isPawnEndgameCapture(p *Position, move Move) bool {
	var captured = move.CapturedPiece()
	return captured != Empty && captured != Pawn &&
		(p.Knights|p.Bishops|p.Rooks|p.Queens) == SquareMask[move.To()] &&
		!isSpecialMove(p, move)
}

func pieceIsSlider(piece int) bool {
	return piece == Bishop || piece == Rook || piece == Queen
}

func pieceAttacks(piece, sq int, side bool, occ uint64) uint64 {
	switch piece {
	case Pawn:
		return PawnAttacks(sq, side)
	case Knight:
		return KnightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	case King:
		return KingAttacks[sq]
	}
	return 0
}

// moveGivesCheck answers without making the move; occupancy is adjusted for
// the mover, en-passant removal and the castling rook.
func moveGivesCheck(p *Position, m Move) bool {
	var us = p.WhiteMove
	var them = p.PiecesByColor(!us)
	var ksq = FirstOne(p.Kings & them)
	var from = m.From()
	var to = m.To()
	var piece = m.MovingPiece()
	if promo := m.Promotion(); promo != Empty {
		piece = promo
	}

	var occ = p.AllPieces()&^SquareMask[from] | SquareMask[to]
	if m.MovingPiece() == Pawn && m.CapturedPiece() == Pawn && to == p.EpSquare {
		if us {
			occ &^= SquareMask[to-8]
		} else {
			occ &^= SquareMask[to+8]
		}
	}

	// direct check
	if piece == Pawn {
		if PawnAttacks(to, us)&SquareMask[ksq] != 0 {
			return true
		}
	} else if piece == King {
		if IsCastleMove(m) {
			var rookFrom, rookTo int
			switch to {
			case SquareG1:
				rookFrom, rookTo = SquareH1, SquareF1
			case SquareC1:
				rookFrom, rookTo = SquareA1, SquareD1
			case SquareG8:
				rookFrom, rookTo = SquareH8, SquareF8
			default:
				rookFrom, rookTo = SquareA8, SquareD8
			}
			occ = occ&^SquareMask[rookFrom] | SquareMask[rookTo]
			return RookAttacks(rookTo, occ)&SquareMask[ksq] != 0
		}
	} else if pieceAttacks(piece, to, us, occ)&SquareMask[ksq] != 0 {
		return true
	}

	// discovered check
	var own = p.PiecesByColor(us)
	var diagSliders = (p.Bishops | p.Queens) & own &^ SquareMask[from]
	if diagSliders&BishopRays(ksq) != 0 &&
		BishopAttacks(ksq, occ)&diagSliders != 0 {
		return true
	}
	var lineSliders = (p.Rooks | p.Queens) & own &^ SquareMask[from]
	if lineSliders&RookRays(ksq) != 0 &&
		RookAttacks(ksq, occ)&lineSliders != 0 {
		return true
	}
	return false
}

// connectedMoves tests whether m1, the move that reached this position, made
// m2 possible. Used by null-move threat detection.
func connectedMoves(p *Position, m1, m2 Move) bool {
	var f1, t1 = m1.From(), m1.To()
	var f2, t2 = m2.From(), m2.To()

	// m2 moves the piece m1 just moved
	if f2 == t1 {
		return true
	}

	// m2's destination was vacated by m1
	if t2 == f1 {
		return true
	}

	// m2 is a slider moving through the vacated square
	var p2 = p.WhatPiece(f2)
	if pieceIsSlider(p2) && Between(f2, t2)&SquareMask[f1] != 0 {
		return true
	}

	// t2 is defended by the piece that arrived via m1
	var p1 = p.WhatPiece(t1)
	var occ = p.AllPieces()
	if pieceAttacks(p1, t1, !p.WhiteMove, occ)&SquareMask[t2] != 0 {
		return true
	}

	// m1 opened a discovered-check ray that m2's mover was blocking
	var ksq = FirstOne(p.Kings & p.PiecesByColor(p.WhiteMove))
	if pieceIsSlider(p1) && Between(t1, ksq)&SquareMask[f2] != 0 &&
		pieceAttacks(p1, t1, !p.WhiteMove, occ&^SquareMask[f2])&SquareMask[ksq] != 0 {
		return true
	}
	return false
}

// connectedThreat decides whether a quiet move is safe to forward-prune given
// the threat move returned by a failed null search.
func connectedThreat(p *Position, m, threat Move) bool {
	var mfrom, mto = m.From(), m.To()
	var tfrom, tto = threat.From(), threat.To()

	// don't prune moves which move the threatened piece
	if mfrom == tto {
		return true
	}

	// don't prune defenses of a threatened piece worth no more than its attacker
	if threat.CapturedPiece() != Empty &&
		(pieceValueMidgame[threat.MovingPiece()] >= pieceValueMidgame[threat.CapturedPiece()] ||
			threat.MovingPiece() == King) &&
		moveAttacksSquare(p, m, tto) {
		return true
	}

	// don't prune safe interpositions on a slider threat's ray
	if pieceIsSlider(threat.MovingPiece()) &&
		Between(tfrom, tto)&SquareMask[mto] != 0 &&
		seeSignGE(p, m) {
		return true
	}

	return false
}

func moveAttacksSquare(p *Position, m Move, sq int) bool {
	var occ = p.AllPieces()&^SquareMask[m.From()] | SquareMask[m.To()]
	var piece = m.MovingPiece()
	if promo := m.Promotion(); promo != Empty {
		piece = promo
	}
	return pieceAttacks(piece, m.To(), p.WhiteMove, occ)&SquareMask[sq] != 0
}

func isDrawnByRule(p *Position) bool {
	if p.Rule50 > 100 {
		return true
	}
	if (p.Pawns|p.Rooks|p.Queens) == 0 &&
		!MoreThanOne(p.Knights|p.Bishops) {
		return true
	}
	return false
}
