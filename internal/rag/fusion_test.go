package rag

import (
	"fmt"
	"math"
	"testing"
)

func TestFuseMinMax(t *testing.T) {
	lexical := []LexicalResult{
		{Code: "CS 50", Score: 12.0},
		{Code: "CS 124", Score: 8.0},
		{Code: "STAT 110", Score: 4.0},
	}
	semantic := []SemanticResult{
		{Code: "CS 124", Similarity: 0.9},
		{Code: "MATH 55", Similarity: 0.8},
		{Code: "CS 50", Similarity: 0.6},
	}

	results := FuseMinMax(lexical, semantic, 0.5, 0.5, 0.0, 10)
	if len(results) != 4 {
		t.Fatalf("FuseMinMax() returned %d results, want 4", len(results))
	}

	// CS 124 appears high in both lists, so it should come first:
	// lexical normalized (8-4)/(12-4)=0.5, semantic (0.9-0.6)/(0.9-0.6)=1.0
	// blended 0.75, beating CS 50's 0.5*1.0 + 0.5*0.0 = 0.5.
	if results[0].Code != "CS 124" {
		t.Errorf("FuseMinMax() top result = %s, want CS 124", results[0].Code)
	}
	if math.Abs(results[0].Score-0.75) > 1e-9 {
		t.Errorf("FuseMinMax() top score = %f, want 0.75", results[0].Score)
	}

	// Breakdown preserved for later ranking stages.
	if results[0].Lexical != 0.5 || results[0].Semantic != 1.0 {
		t.Errorf("FuseMinMax() breakdown = (%f, %f), want (0.5, 1.0)",
			results[0].Lexical, results[0].Semantic)
	}

	// Sorted descending.
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("FuseMinMax() not sorted at index %d", i)
		}
	}
}

func TestFuseMinMaxLexicalOnly(t *testing.T) {
	lexical := []LexicalResult{
		{Code: "CS 50", Score: 12.0},
		{Code: "CS 124", Score: 8.0},
		{Code: "STAT 110", Score: 4.0},
	}

	results := FuseMinMax(lexical, nil, 0.5, 0.5, 0.0, 10)
	if len(results) != 3 {
		t.Fatalf("FuseMinMax() lexical-only returned %d results, want 3", len(results))
	}
	if results[0].Code != "CS 50" {
		t.Errorf("FuseMinMax() top result = %s, want CS 50", results[0].Code)
	}
	// Half the weight is all a one-sided candidate can earn.
	if math.Abs(results[0].Score-0.5) > 1e-9 {
		t.Errorf("FuseMinMax() lexical-only top score = %f, want 0.5", results[0].Score)
	}
}

func TestFuseMinMaxFloor(t *testing.T) {
	lexical := []LexicalResult{
		{Code: "CS 50", Score: 12.0},
		{Code: "CS 124", Score: 8.0},
		{Code: "STAT 110", Score: 4.0},
	}

	// STAT 110 normalizes to 0.0 lexical, no semantic presence: fused
	// score 0.0 falls below any positive floor.
	results := FuseMinMax(lexical, nil, 0.5, 0.5, 0.05, 10)
	for _, r := range results {
		if r.Code == "STAT 110" {
			t.Error("FuseMinMax() kept a result below the score floor")
		}
		if r.Score < 0.05 {
			t.Errorf("FuseMinMax() result %s has score %f below floor", r.Code, r.Score)
		}
	}
}

func TestFuseMinMaxLimit(t *testing.T) {
	var lexical []LexicalResult
	for i := 0; i < 80; i++ {
		lexical = append(lexical, LexicalResult{
			Code:  fmt.Sprintf("CS %d", i+1),
			Score: float64(100 - i),
		})
	}

	results := FuseMinMax(lexical, nil, 1.0, 0.0, 0.0, 50)
	if len(results) != 50 {
		t.Errorf("FuseMinMax() returned %d results, want 50", len(results))
	}
}

func TestFuseMinMaxSingleScoreLevel(t *testing.T) {
	// All-equal scores normalize to 1.0, not 0.0, so a single-hit list
	// still surfaces its course.
	lexical := []LexicalResult{{Code: "CS 50", Score: 3.7}}
	semantic := []SemanticResult{
		{Code: "CS 50", Similarity: 0.8},
		{Code: "CS 124", Similarity: 0.8},
	}

	results := FuseMinMax(lexical, semantic, 0.5, 0.5, 0.05, 10)
	if len(results) != 2 {
		t.Fatalf("FuseMinMax() returned %d results, want 2", len(results))
	}
	if results[0].Code != "CS 50" {
		t.Errorf("FuseMinMax() top result = %s, want CS 50", results[0].Code)
	}
	if math.Abs(results[0].Score-1.0) > 1e-9 {
		t.Errorf("FuseMinMax() top score = %f, want 1.0", results[0].Score)
	}
}

func TestFuseMinMaxEmpty(t *testing.T) {
	results := FuseMinMax(nil, nil, 0.5, 0.5, 0.05, 10)
	if len(results) != 0 {
		t.Errorf("FuseMinMax() on empty inputs returned %d results", len(results))
	}
}

func TestFuseMinMaxWeightMonotonicity(t *testing.T) {
	lexical := []LexicalResult{
		{Code: "CS 50", Score: 10.0},
		{Code: "CS 124", Score: 5.0},
		{Code: "STAT 110", Score: 2.0},
	}
	semantic := []SemanticResult{
		{Code: "STAT 110", Similarity: 0.95},
		{Code: "CS 124", Similarity: 0.5},
		{Code: "CS 50", Similarity: 0.2},
	}

	// With all weight on the lexical side the lexical winner leads;
	// shifting all weight to the semantic side flips the order.
	lexHeavy := FuseMinMax(lexical, semantic, 1.0, 0.0, 0.0, 10)
	semHeavy := FuseMinMax(lexical, semantic, 0.0, 1.0, 0.0, 10)

	if lexHeavy[0].Code != "CS 50" {
		t.Errorf("lexical-weighted top = %s, want CS 50", lexHeavy[0].Code)
	}
	if semHeavy[0].Code != "STAT 110" {
		t.Errorf("semantic-weighted top = %s, want STAT 110", semHeavy[0].Code)
	}
}
