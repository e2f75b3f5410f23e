package engine

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// Book is a plain-text opening book: one csv record per position, the FEN
// first, then the candidate moves in long algebraic notation, best first.
type Book struct {
	path    string
	entries map[uint64][]Move
	rnd     *rand.Rand
}

func LoadBook(path string) (*Book, error) {
	var file, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var book = &Book{
		path:    path,
		entries: make(map[uint64][]Move),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	var reader = csv.NewReader(file)
	reader.FieldsPerRecord = -1
	for {
		var record, err = reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 2 {
			continue
		}
		var p, fenErr = NewPositionFromFEN(strings.TrimSpace(record[0]))
		if fenErr != nil {
			continue
		}
		var moves []Move
		for _, lan := range record[1:] {
			if m := p.ParseMoveLAN(strings.TrimSpace(lan)); m != MoveEmpty {
				moves = append(moves, m)
			}
		}
		if len(moves) > 0 {
			book.entries[p.Key] = moves
		}
	}
	return book, nil
}

// Probe returns a book move for the position, the top choice when bestOnly is
// set, otherwise a random candidate. MoveEmpty means out of book.
func (b *Book) Probe(p *Position, bestOnly bool) Move {
	var moves = b.entries[p.Key]
	if len(moves) == 0 {
		return MoveEmpty
	}
	if bestOnly {
		return moves[0]
	}
	return moves[b.rnd.Intn(len(moves))]
}
