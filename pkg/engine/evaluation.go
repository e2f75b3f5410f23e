package engine

import (
	. "github.com/meridian-engine/meridian/pkg/common"
)

type score struct {
	midgame int32
	endgame int32
}

func (l *score) Add(r score) {
	l.midgame += r.midgame
	l.endgame += r.endgame
}

func (l *score) Sub(r score) {
	l.midgame -= r.midgame
	l.endgame -= r.endgame
}

func (l *score) AddN(r score, n int) {
	l.midgame += r.midgame * int32(n)
	l.endgame += r.endgame * int32(n)
}

var (
	materialPawn       = score{198, 258}
	materialKnight     = score{817, 846}
	materialBishop     = score{836, 857}
	materialRook       = score{1270, 1278}
	materialQueen      = score{2521, 2558}
	materialBishopPair = score{30, 80}
	pstKnight          = score{20, 20}
	pstQueen           = score{0, 12}
	pstKingOpening     = score{-40, 0}
	pstKingEndgame     = score{0, 20}
	kingAttack         = score{14, 0}
	bishopMob          = score{7, 7}
	rookMob            = score{5, 10}
	rook7Th            = score{60, 0}
	rookOpen           = score{40, 0}
	rookSemiopen       = score{20, 0}
	kingPawnShield     = score{-20, 0}
	pawnIsolated       = score{-30, -20}
	pawnDoubled        = score{-20, -20}
	pawnCenter         = score{30, 0}
	pawnPassed         = score{8, 16}
	threat             = score{100, 100}
	tempo              = score{20, 10}
)

var (
	centerPST = [64]int{
		-3, -2, -1, 0, 0, -1, -2, -3,
		-2, -1, 0, 1, 1, 0, -1, -2,
		-1, 0, 1, 2, 2, 1, 0, -1,
		0, 1, 2, 3, 3, 2, 1, 0,
		0, 1, 2, 3, 3, 2, 1, 0,
		-1, 0, 1, 2, 2, 1, 0, -1,
		-2, -1, 0, 1, 1, 0, -1, -2,
		-3, -2, -1, 0, 0, -1, -2, -3,
	}

	kingFilePST = [8]int{3, 4, 2, 0, 0, 2, 4, 3}

	pawnPassedBonus = [8]int{0, 0, 0, 2, 6, 12, 21, 0}
)

const (
	kingAttackUnitKnight = 2
	kingAttackUnitBishop = 2
	kingAttackUnitRook   = 3
	kingAttackUnitQueen  = 4
)

var kingZone [64]uint64

func init() {
	for sq := 0; sq < 64; sq++ {
		var zone = KingAttacks[sq] | SquareMask[sq]
		kingZone[sq] = zone | Up(zone) | Down(zone)
	}
}

func getIsolatedPawns(pawns uint64) uint64 {
	var aux = FileFill(pawns)
	return pawns &^ (Left(aux) | Right(aux))
}

func getDoubledPawns(pawns uint64) uint64 {
	return pawns & DownFill(Down(pawns))
}

// evaluate returns the static score from the side to move's point of view and
// an uncertainty margin that grows with the attack on the side to move's
// king.
func evaluate(p *Position) (value, margin int) {
	var (
		x                              uint64
		sq                             int
		wn, bn, wb, bb, wr, br, wq, bq int
		total                          score
		wAttackUnits, bAttackUnits     int
	)
	var allPieces = p.White | p.Black
	var wkingSq = FirstOne(p.Kings & p.White)
	var bkingSq = FirstOne(p.Kings & p.Black)
	var wp = PopCount(p.Pawns & p.White)
	var bp = PopCount(p.Pawns & p.Black)

	total.AddN(pawnIsolated,
		PopCount(getIsolatedPawns(p.Pawns&p.White))-
			PopCount(getIsolatedPawns(p.Pawns&p.Black)))

	total.AddN(pawnDoubled,
		PopCount(getDoubledPawns(p.Pawns&p.White))-
			PopCount(getDoubledPawns(p.Pawns&p.Black)))

	var b = p.Pawns & p.White & (Rank4Mask | Rank5Mask | Rank6Mask) & (FileDMask | FileEMask)
	total.AddN(pawnCenter, PopCount(b))
	b = p.Pawns & p.Black & (Rank5Mask | Rank4Mask | Rank3Mask) & (FileDMask | FileEMask)
	total.AddN(pawnCenter, -PopCount(b))

	var wStrongAttacks = AllWhitePawnAttacks(p.Pawns&p.White) & p.Black &^ p.Pawns
	var bStrongAttacks = AllBlackPawnAttacks(p.Pawns&p.Black) & p.White &^ p.Pawns
	total.AddN(threat, PopCount(wStrongAttacks)-PopCount(bStrongAttacks))

	var wkingZone = kingZone[wkingSq]
	var bkingZone = kingZone[bkingSq]

	var wMobilityArea = ^((p.Pawns & p.White) | AllBlackPawnAttacks(p.Pawns&p.Black))
	var bMobilityArea = ^((p.Pawns & p.Black) | AllWhitePawnAttacks(p.Pawns&p.White))

	for x = p.Knights & p.White; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		wn++
		total.AddN(pstKnight, centerPST[sq])
		if KnightAttacks[sq]&bkingZone != 0 {
			wAttackUnits += kingAttackUnitKnight
		}
	}
	for x = p.Knights & p.Black; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		bn++
		total.AddN(pstKnight, -centerPST[sq])
		if KnightAttacks[sq]&wkingZone != 0 {
			bAttackUnits += kingAttackUnitKnight
		}
	}
	for x = p.Bishops & p.White; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		wb++
		var attacks = BishopAttacks(sq, allPieces)
		total.AddN(bishopMob, PopCount(attacks&wMobilityArea)-6)
		if attacks&bkingZone != 0 {
			wAttackUnits += kingAttackUnitBishop
		}
	}
	for x = p.Bishops & p.Black; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		bb++
		var attacks = BishopAttacks(sq, allPieces)
		total.AddN(bishopMob, -(PopCount(attacks&bMobilityArea) - 6))
		if attacks&wkingZone != 0 {
			bAttackUnits += kingAttackUnitBishop
		}
	}
	for x = p.Rooks & p.White; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		wr++
		if Rank(sq) == Rank7 &&
			(p.Pawns&p.Black&Rank7Mask != 0 || Rank(bkingSq) == Rank8) {
			total.Add(rook7Th)
		}
		var attacks = RookAttacks(sq, allPieces&^(p.Rooks&p.White))
		total.AddN(rookMob, PopCount(attacks&wMobilityArea)-7)
		if attacks&bkingZone != 0 {
			wAttackUnits += kingAttackUnitRook
		}
		b = FileMask[File(sq)]
		if (b & p.Pawns & p.White) == 0 {
			if (b & p.Pawns) == 0 {
				total.Add(rookOpen)
			} else {
				total.Add(rookSemiopen)
			}
		}
	}
	for x = p.Rooks & p.Black; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		br++
		if Rank(sq) == Rank2 &&
			(p.Pawns&p.White&Rank2Mask != 0 || Rank(wkingSq) == Rank1) {
			total.Sub(rook7Th)
		}
		var attacks = RookAttacks(sq, allPieces&^(p.Rooks&p.Black))
		total.AddN(rookMob, -(PopCount(attacks&bMobilityArea) - 7))
		if attacks&wkingZone != 0 {
			bAttackUnits += kingAttackUnitRook
		}
		b = FileMask[File(sq)]
		if (b & p.Pawns & p.Black) == 0 {
			if (b & p.Pawns) == 0 {
				total.Sub(rookOpen)
			} else {
				total.Sub(rookSemiopen)
			}
		}
	}
	for x = p.Queens & p.White; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		wq++
		total.AddN(pstQueen, centerPST[sq])
		if QueenAttacks(sq, allPieces)&bkingZone != 0 {
			wAttackUnits += kingAttackUnitQueen
		}
	}
	for x = p.Queens & p.Black; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		bq++
		total.AddN(pstQueen, -centerPST[sq])
		if QueenAttacks(sq, allPieces)&wkingZone != 0 {
			bAttackUnits += kingAttackUnitQueen
		}
	}

	// passed pawns
	for x = p.Pawns & p.White; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		if passedPawnMask[1][sq]&p.Pawns&p.Black == 0 {
			total.AddN(pawnPassed, pawnPassedBonus[Rank(sq)])
		}
	}
	for x = p.Pawns & p.Black; x != 0; x &= x - 1 {
		sq = FirstOne(x)
		if passedPawnMask[0][sq]&p.Pawns&p.White == 0 {
			total.AddN(pawnPassed, -pawnPassedBonus[Rank(FlipSquare(sq))])
		}
	}

	total.AddN(materialPawn, wp-bp)
	total.AddN(materialKnight, wn-bn)
	total.AddN(materialBishop, wb-bb)
	total.AddN(materialRook, wr-br)
	total.AddN(materialQueen, wq-bq)
	if wb >= 2 {
		total.Add(materialBishopPair)
	}
	if bb >= 2 {
		total.Sub(materialBishopPair)
	}

	total.AddN(pstKingOpening, kingFilePST[File(wkingSq)]-kingFilePST[File(bkingSq)])
	total.AddN(pstKingEndgame, centerPST[wkingSq]-centerPST[bkingSq])

	var wFront = Up(SquareMask[wkingSq] | Left(SquareMask[wkingSq]) | Right(SquareMask[wkingSq]))
	var bFront = Down(SquareMask[bkingSq] | Left(SquareMask[bkingSq]) | Right(SquareMask[bkingSq]))
	var wMissing = 3 - Min(3, PopCount(wFront&p.Pawns&p.White))
	var bMissing = 3 - Min(3, PopCount(bFront&p.Pawns&p.Black))
	total.AddN(kingPawnShield, wMissing-bMissing)

	total.AddN(kingAttack, wAttackUnits*wAttackUnits/4-bAttackUnits*bAttackUnits/4)

	if p.WhiteMove {
		total.Add(tempo)
	} else {
		total.Sub(tempo)
	}

	// phase interpolation on remaining non-pawn material
	var phase = Min(32, 2*(wq+bq)*4+2*(wr+br)*2+2*(wn+bn+wb+bb))
	var v = (int(total.midgame)*phase + int(total.endgame)*(32-phase)) / 32

	var attackOnUs = bAttackUnits
	if !p.WhiteMove {
		v = -v
		attackOnUs = wAttackUnits
	}

	margin = Min(2*pawnValueMidgame, 16*attackOnUs)
	return v, margin
}
