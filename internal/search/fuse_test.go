package search

import (
	"testing"

	"github.com/knoguchi/pokedex/internal/repository"
)

func lexCand(id int, score float32) RankedCandidate {
	return RankedCandidate{
		Record: repository.Pokemon{ID: id, Name: "p", Info: "info"},
		Score:  score,
		Source: SourceLexical,
	}
}

func vecCand(id int, distance float32) RankedCandidate {
	return RankedCandidate{
		Record: repository.Pokemon{ID: id, Name: "p", Info: "info"},
		Score:  distance,
		Source: SourceVector,
	}
}

func TestFuse_DedupsByID(t *testing.T) {
	fused := Fuse(
		[]RankedCandidate{lexCand(1, 0.9), lexCand(2, 0.4)},
		[]RankedCandidate{vecCand(2, 0.1), vecCand(3, 0.3)},
	)

	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}
	for i, want := range []int{1, 2, 3} {
		if fused[i].Record.ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, fused[i].Record.ID)
		}
	}
}

func TestFuse_FirstOccurrenceWins(t *testing.T) {
	first := lexCand(7, 0.9)
	first.Record.Name = "from-lexical"
	second := vecCand(7, 0.1)
	second.Record.Name = "from-vector"

	fused := Fuse([]RankedCandidate{first}, []RankedCandidate{second})

	if len(fused) != 1 {
		t.Fatalf("expected 1 fused candidate, got %d", len(fused))
	}
	if fused[0].Record.Name != "from-lexical" {
		t.Errorf("expected first occurrence to win, got record %q", fused[0].Record.Name)
	}
}

func TestFuse_PreservesConcatenationOrder(t *testing.T) {
	fused := Fuse(
		[]RankedCandidate{lexCand(5, 0.2), lexCand(3, 0.1)},
		[]RankedCandidate{vecCand(9, 0.4), vecCand(5, 0.5), vecCand(1, 0.6)},
	)

	want := []int{5, 3, 9, 1}
	if len(fused) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(fused))
	}
	for i, id := range want {
		if fused[i].Record.ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, fused[i].Record.ID)
		}
	}
}

func TestFuse_EmptyInputs(t *testing.T) {
	if fused := Fuse(); fused != nil {
		t.Errorf("expected nil for no lists, got %v", fused)
	}
	if fused := Fuse(nil, nil); fused != nil {
		t.Errorf("expected nil for empty lists, got %v", fused)
	}

	fused := Fuse(nil, []RankedCandidate{vecCand(4, 0.2)})
	if len(fused) != 1 || fused[0].Record.ID != 4 {
		t.Errorf("expected single candidate with id 4, got %v", fused)
	}
}

func TestFuse_SingleList(t *testing.T) {
	fused := Fuse([]RankedCandidate{lexCand(1, 0.9), lexCand(1, 0.8), lexCand(2, 0.7)})

	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].Record.ID != 1 || fused[1].Record.ID != 2 {
		t.Errorf("unexpected order: %d, %d", fused[0].Record.ID, fused[1].Record.ID)
	}
}
