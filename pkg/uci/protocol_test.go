package uci

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/meridian-engine/meridian/pkg/common"
)

type stubEngine struct {
	cleared  bool
	prepared bool
}

func (s *stubEngine) Prepare()   { s.prepared = true }
func (s *stubEngine) Clear()     { s.cleared = true }
func (s *stubEngine) Stop()      {}
func (s *stubEngine) PonderHit() {}
func (s *stubEngine) Search(ctx context.Context, params common.SearchParams) common.SearchInfo {
	return common.SearchInfo{}
}

func newTestProtocol() (*Protocol, *stubEngine) {
	var eng = &stubEngine{}
	var hash = 16
	var protocol = New("test", "nobody", "0", eng, []Option{
		&IntOption{Name: "Hash", Min: 4, Max: 1024, Value: &hash},
	})
	return protocol, eng
}

func TestSearchInfoToUci(t *testing.T) {
	var p, _ = common.NewPositionFromFEN(common.InitialPositionFen)
	var move = p.ParseMoveLAN("e2e4")
	var si = common.SearchInfo{
		Depth:    12,
		SelDepth: 20,
		MultiPV:  1,
		Score:    common.UciScore{Centipawns: 34},
		Nodes:    100000,
		Time:     time.Second,
		MainLine: []common.Move{move},
	}
	var line = searchInfoToUci(si)
	for _, want := range []string{
		"info depth 12", "seldepth 20", "multipv 1",
		"score cp 34", "nodes 100000", "pv e2e4",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("info line %q misses %q", line, want)
		}
	}

	si.Score = common.UciScore{Mate: 3}
	si.Bound = common.BoundLower
	line = searchInfoToUci(si)
	if !strings.Contains(line, "score mate 3 lowerbound") {
		t.Errorf("mate info line: %q", line)
	}
}

func TestSetOptionWithSpaces(t *testing.T) {
	var eng = &stubEngine{}
	var skill = 20
	var protocol = New("test", "nobody", "0", eng, []Option{
		&IntOption{Name: "Skill Level", Min: 0, Max: 20, Value: &skill},
	})
	var err = protocol.handle("setoption name Skill Level value 7")
	if err != nil {
		t.Fatal(err)
	}
	if skill != 7 {
		t.Errorf("skill = %v", skill)
	}
	if err = protocol.handle("setoption name No Such Thing value 1"); err == nil {
		t.Error("unknown option accepted")
	}
}

func TestPositionCommand(t *testing.T) {
	var protocol, _ = newTestProtocol()
	var err = protocol.handle("position startpos moves e2e4 c7c5")
	if err != nil {
		t.Fatal(err)
	}
	if len(protocol.positions) != 3 {
		t.Fatalf("positions: %v", len(protocol.positions))
	}
	if err = protocol.handle("position startpos moves e2e5"); err == nil {
		t.Error("illegal move accepted")
	}
}

func TestParseLimits(t *testing.T) {
	var protocol, _ = newTestProtocol()
	var limits = protocol.parseLimits(strings.Fields(
		"wtime 60000 btime 59000 winc 1000 binc 900 movestogo 30 depth 10 ponder"))
	if limits.WhiteTime != 60000 || limits.BlackTime != 59000 ||
		limits.WhiteIncrement != 1000 || limits.BlackIncrement != 900 ||
		limits.MovesToGo != 30 || limits.Depth != 10 || !limits.Ponder {
		t.Errorf("limits: %+v", limits)
	}
	if limits.UseTimeManagement() {
		t.Error("depth limit should disable time management")
	}

	limits = protocol.parseLimits(strings.Fields("searchmoves e2e4 d2d4"))
	if len(limits.SearchMoves) != 2 {
		t.Errorf("searchmoves: %v", limits.SearchMoves)
	}
}

func TestUnknownCommand(t *testing.T) {
	var protocol, _ = newTestProtocol()
	var err = protocol.handle("frobnicate")
	if err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Errorf("err = %v", err)
	}
}

func TestUciNewGame(t *testing.T) {
	var protocol, eng = newTestProtocol()
	if err := protocol.handle("ucinewgame"); err != nil {
		t.Fatal(err)
	}
	if !eng.cleared {
		t.Error("engine not cleared")
	}
}
