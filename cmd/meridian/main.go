package main

import (
	"fmt"
	"log"
	"os"

	"github.com/meridian-engine/meridian/pkg/common"
	"github.com/meridian-engine/meridian/pkg/engine"
	"github.com/meridian-engine/meridian/pkg/uci"
)

const (
	name    = "Meridian"
	version = "1.0"
	author  = "the Meridian authors"
)

func main() {
	var logger = log.New(os.Stderr, "", log.LstdFlags)
	var eng = engine.NewEngine()
	eng.CurrMove = func(depth int, mv common.Move, num int) {
		fmt.Printf("info depth %v currmove %v currmovenumber %v\n", depth, mv, num)
	}
	var protocol = uci.New(name, author, version, eng, []uci.Option{
		&uci.IntOption{Name: "Hash", Min: 4, Max: 1 << 14, Value: &eng.Hash},
		&uci.ButtonOption{Name: "Clear Hash", Action: eng.ClearHash},
		&uci.IntOption{Name: "Threads", Min: 1, Max: 32, Value: &eng.Threads},
		&uci.IntOption{Name: "MultiPV", Min: 1, Max: 64, Value: &eng.MultiPV},
		&uci.IntOption{Name: "Skill Level", Min: 0, Max: 20, Value: &eng.SkillLevel},
		&uci.IntOption{Name: "Min Split Depth", Min: 4, Max: 7, Value: &eng.MinSplitDepth},
		&uci.BoolOption{Name: "Use Sleeping Threads", Value: &eng.UseSleepingThreads},
		&uci.BoolOption{Name: "OwnBook", Value: &eng.OwnBook},
		&uci.StringOption{Name: "Book File", Value: &eng.BookFile},
		&uci.BoolOption{Name: "Best Book Move", Value: &eng.BestBookMove},
	})
	protocol.Run(logger)
}
