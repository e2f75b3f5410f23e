package engine

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func TestBook(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "book.csv")
	var content = "" +
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1,e2e4,d2d4\n" +
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1,c7c5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var book, err = LoadBook(path)
	if err != nil {
		t.Fatal(err)
	}

	var p, _ = NewPositionFromFEN(InitialPositionFen)
	if got := book.Probe(&p, true); got.String() != "e2e4" {
		t.Errorf("best book move: got %v", got)
	}
	var any = book.Probe(&p, false)
	if s := any.String(); s != "e2e4" && s != "d2d4" {
		t.Errorf("book move outside the book: %v", any)
	}

	var offBook, _ = NewPositionFromFEN("8/8/4k3/8/4K3/8/8/8 w - - 0 1")
	if got := book.Probe(&offBook, true); got != MoveEmpty {
		t.Errorf("move for a position outside the book: %v", got)
	}
}
