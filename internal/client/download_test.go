package client

import "testing"

func TestReceived_GapsOnEmptyTotal(t *testing.T) {
	var r received
	if gaps := r.gaps(0); gaps != nil {
		t.Fatalf("expected no gaps for zero-length file, got %v", gaps)
	}
}

func TestReceived_GapsWhenNothingReceived(t *testing.T) {
	var r received
	gaps := r.gaps(100)
	if len(gaps) != 1 || gaps[0] != [2]uint32{0, 100} {
		t.Fatalf("expected a single full-file gap, got %v", gaps)
	}
}

func TestReceived_GapsWithSingleHoleInMiddle(t *testing.T) {
	var r received
	r.mark(0, 40)
	r.mark(60, 100)
	gaps := r.gaps(100)
	if len(gaps) != 1 || gaps[0] != [2]uint32{40, 60} {
		t.Fatalf("expected one gap [40,60), got %v", gaps)
	}
}

func TestReceived_GapsMergesOverlappingRanges(t *testing.T) {
	var r received
	r.mark(0, 50)
	r.mark(40, 90)
	r.mark(90, 100)
	if gaps := r.gaps(100); gaps != nil {
		t.Fatalf("expected fully-covered range to report no gaps, got %v", gaps)
	}
}

func TestReceived_GapsTrailingUnreceived(t *testing.T) {
	var r received
	r.mark(0, 70)
	gaps := r.gaps(100)
	if len(gaps) != 1 || gaps[0] != [2]uint32{70, 100} {
		t.Fatalf("expected trailing gap [70,100), got %v", gaps)
	}
}
