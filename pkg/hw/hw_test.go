package hw

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	kinds := []Kind{Digital, Waveform}
	boards := []uint16{0, 1, 2, 42, 0xFFFF}
	locals := []uint16{0, 1, 13, 8191, maxLocalID}

	for _, b := range boards {
		for _, k := range kinds {
			for _, l := range locals {
				packed := Pack(b, k, l)
				gotB, gotK, gotL := Unpack(packed)
				if gotB != b || gotK != k || gotL != l {
					t.Fatalf("Unpack(Pack(%d,%d,%d)) = (%d,%d,%d)", b, k, l, gotB, gotK, gotL)
				}
			}
		}
	}
}

func TestNewChannelRejectsOutOfRangeLocalID(t *testing.T) {
	if _, err := NewChannel(MainBoard, Digital, maxLocalID+1); err == nil {
		t.Fatal("expected error for out-of-range local_id")
	}
	if _, err := NewChannel(MainBoard, Digital, maxLocalID); err != nil {
		t.Fatalf("unexpected error at boundary: %v", err)
	}
}

func TestBoardRegistryAssignsStableDenseIndices(t *testing.T) {
	reg := NewBoardRegistry()
	first, err := reg.IndexOf("main")
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.IndexOf("rwg0")
	if err != nil {
		t.Fatal(err)
	}
	again, err := reg.IndexOf("main")
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Errorf("IndexOf not stable across calls: %d vs %d", first, again)
	}
	if first == second {
		t.Errorf("distinct boards got the same index")
	}
	if b, ok := reg.Board(second); !ok || b != "rwg0" {
		t.Errorf("Board(%d) = (%q, %v), want (rwg0, true)", second, b, ok)
	}
}

func TestChannelStructuralEquality(t *testing.T) {
	a, _ := NewChannel("rwg0", Waveform, 3)
	b, _ := NewChannel("rwg0", Waveform, 3)
	c, _ := NewChannel("rwg0", Waveform, 4)
	if a != b {
		t.Errorf("expected structurally equal channels to compare equal")
	}
	if a == c {
		t.Errorf("expected channels with different local_id to differ")
	}
}
