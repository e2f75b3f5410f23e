package engine

import "testing"

func TestFutilityTables(t *testing.T) {
	if futilityMoveCounts[0] != 3 {
		t.Errorf("futilityMoveCounts[0] = %v", futilityMoveCounts[0])
	}
	if futilityMoveCounts[31] != 3+240 {
		t.Errorf("futilityMoveCounts[31] = %v", futilityMoveCounts[31])
	}
	for d := 1; d < 32; d++ {
		if futilityMoveCounts[d] < futilityMoveCounts[d-1] {
			t.Fatal("futility move counts not monotonic")
		}
	}

	// 112*(log2(1/2)+1.001 truncated) - 8*0 + 45
	if futilityMargins[1][0] != 45 {
		t.Errorf("futilityMargins[1][0] = %v", futilityMargins[1][0])
	}
	// deeper margins grow, later moves shrink them
	if futilityMargins[8][0] <= futilityMargins[2][0] {
		t.Error("margin not growing with depth")
	}
	if futilityMargins[4][10] >= futilityMargins[4][0] {
		t.Error("margin not shrinking with move number")
	}
}

func TestReductions(t *testing.T) {
	// first moves at shallow depth are never reduced
	if reduction(true, onePly, 1) != 0 || reduction(false, onePly, 1) != 0 {
		t.Error("reduction at minimal depth")
	}
	// non-PV reductions dominate PV reductions
	for d := 2; d < 30; d++ {
		for mc := 2; mc < 30; mc++ {
			if reductions[0][d][mc] < reductions[1][d][mc] {
				t.Fatalf("pv reduced more than non-pv at %v/%v", d, mc)
			}
		}
	}
	// late moves at depth are reduced by at least a ply
	if reduction(false, 20*onePly, 30) < onePly {
		t.Error("no reduction for a late move at depth")
	}
}

func TestRazorMargin(t *testing.T) {
	if razorMargin(0) != 512 {
		t.Errorf("razorMargin(0) = %v", razorMargin(0))
	}
	if razorMargin(4) != 512+64 {
		t.Errorf("razorMargin(4) = %v", razorMargin(4))
	}
}
