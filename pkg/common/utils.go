package common

func Min(l, r int) int {
	if l < r {
		return l
	}
	return r
}

func Max(l, r int) int {
	if l > r {
		return l
	}
	return r
}

func let(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}

func FlipSquare(sq int) int {
	return sq ^ 56
}

func File(sq int) int {
	return sq & 7
}

func Rank(sq int) int {
	return sq >> 3
}

func AbsDelta(x, y int) int {
	if x > y {
		return x - y
	}
	return y - x
}

func FileDistance(sq1, sq2 int) int {
	return AbsDelta(File(sq1), File(sq2))
}

func RankDistance(sq1, sq2 int) int {
	return AbsDelta(Rank(sq1), Rank(sq2))
}

func SquareDistance(sq1, sq2 int) int {
	return Max(FileDistance(sq1, sq2), RankDistance(sq1, sq2))
}

func MakeSquare(file, rank int) int {
	return (rank << 3) | file
}

func SquareName(sq int) string {
	var file = string("abcdefgh"[File(sq)])
	var rank = string("12345678"[Rank(sq)])
	return file + rank
}

func ParseSquare(s string) int {
	if s == "-" {
		return SquareNone
	}
	var file = int(s[0] - 'a')
	var rank = int(s[1] - '1')
	return MakeSquare(file, rank)
}

func MakePiece(pieceType int, side bool) int {
	if side {
		return pieceType + 7
	}
	return pieceType
}
