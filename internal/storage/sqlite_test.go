package storage

import (
	"path/filepath"
	"testing"

	"github.com/audiometrics/aesthete/pkg/models"
)

func newTestClient(t *testing.T) *DBClient {
	t.Helper()
	client, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to create db client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRegisterClip(t *testing.T) {
	client := newTestClient(t)

	id, err := client.RegisterClip("/audio/book.wav", 25000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected a UUID clip id, got %q", id)
	}

	// Registering the same source again reuses the row.
	again, err := client.RegisterClip("/audio/book.wav", 25000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed on second call: %v", err)
	}
	if again != id {
		t.Errorf("Expected same clip id %s, got %s", id, again)
	}

	other, err := client.RegisterClip("/audio/other.wav", 10000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed for second source: %v", err)
	}
	if other == id {
		t.Error("Different sources must get different clip ids")
	}
}

func TestStoreAndGetScore(t *testing.T) {
	client := newTestClient(t)

	id, err := client.RegisterClip("/audio/book.wav", 25000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed: %v", err)
	}

	scores := models.Axes{CE: 5.1, CU: 4.2, PC: 3.3, PQ: 6.4}
	if err := client.StoreScore(id, scores); err != nil {
		t.Fatalf("StoreScore failed: %v", err)
	}

	cs, err := client.GetScoreBySource("/audio/book.wav")
	if err != nil {
		t.Fatalf("GetScoreBySource failed: %v", err)
	}
	if cs == nil {
		t.Fatal("Expected a cached score, got nil")
	}
	if cs.Scores != scores {
		t.Errorf("Expected scores %+v, got %+v", scores, cs.Scores)
	}
	if cs.ClipID != id || cs.DurationMs != 25000 || cs.SampleRate != 16000 {
		t.Errorf("Clip metadata mismatch: %+v", cs)
	}

	byID, err := client.GetScoreByID(id)
	if err != nil {
		t.Fatalf("GetScoreByID failed: %v", err)
	}
	if byID == nil || byID.Scores != scores {
		t.Errorf("GetScoreByID returned %+v", byID)
	}
}

func TestStoreScoreUpsert(t *testing.T) {
	client := newTestClient(t)

	id, err := client.RegisterClip("/audio/book.wav", 25000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed: %v", err)
	}

	if err := client.StoreScore(id, models.Axes{CE: 1, CU: 1, PC: 1, PQ: 1}); err != nil {
		t.Fatalf("StoreScore failed: %v", err)
	}
	updated := models.Axes{CE: 2, CU: 3, PC: 4, PQ: 5}
	if err := client.StoreScore(id, updated); err != nil {
		t.Fatalf("StoreScore update failed: %v", err)
	}

	cs, err := client.GetScoreByID(id)
	if err != nil {
		t.Fatalf("GetScoreByID failed: %v", err)
	}
	if cs.Scores != updated {
		t.Errorf("Expected updated scores %+v, got %+v", updated, cs.Scores)
	}

	scores, err := client.ListScores()
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 1 {
		t.Errorf("Upsert must not duplicate rows, got %d", len(scores))
	}
}

func TestGetScoreMisses(t *testing.T) {
	client := newTestClient(t)

	cs, err := client.GetScoreBySource("/audio/unknown.wav")
	if err != nil {
		t.Fatalf("GetScoreBySource failed: %v", err)
	}
	if cs != nil {
		t.Errorf("Expected nil for unknown source, got %+v", cs)
	}

	// A registered clip without a stored score is also a miss.
	if _, err := client.RegisterClip("/audio/pending.wav", 1000, 16000); err != nil {
		t.Fatalf("RegisterClip failed: %v", err)
	}
	cs, err = client.GetScoreBySource("/audio/pending.wav")
	if err != nil {
		t.Fatalf("GetScoreBySource failed: %v", err)
	}
	if cs != nil {
		t.Errorf("Expected nil for unscored clip, got %+v", cs)
	}
}

func TestListScores(t *testing.T) {
	client := newTestClient(t)

	for i, source := range []string{"/a.wav", "/b.wav", "/c.wav"} {
		id, err := client.RegisterClip(source, 1000*(i+1), 16000)
		if err != nil {
			t.Fatalf("RegisterClip failed: %v", err)
		}
		if err := client.StoreScore(id, models.Axes{CE: float64(i)}); err != nil {
			t.Fatalf("StoreScore failed: %v", err)
		}
	}

	scores, err := client.ListScores()
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}
}

func TestDeleteClipByID(t *testing.T) {
	client := newTestClient(t)

	id, err := client.RegisterClip("/audio/book.wav", 25000, 16000)
	if err != nil {
		t.Fatalf("RegisterClip failed: %v", err)
	}
	if err := client.StoreScore(id, models.Axes{CE: 1}); err != nil {
		t.Fatalf("StoreScore failed: %v", err)
	}

	if err := client.DeleteClipByID(id); err != nil {
		t.Fatalf("DeleteClipByID failed: %v", err)
	}

	cs, err := client.GetScoreBySource("/audio/book.wav")
	if err != nil {
		t.Fatalf("GetScoreBySource failed: %v", err)
	}
	if cs != nil {
		t.Errorf("Expected clip to be gone, got %+v", cs)
	}

	scores, err := client.ListScores()
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(scores))
	}
}

func TestNilClientGuards(t *testing.T) {
	var client *DBClient

	if _, err := client.RegisterClip("x", 0, 0); err == nil {
		t.Error("Expected error from nil client RegisterClip")
	}
	if err := client.StoreScore("x", models.Axes{}); err == nil {
		t.Error("Expected error from nil client StoreScore")
	}
	if _, err := client.GetScoreBySource("x"); err == nil {
		t.Error("Expected error from nil client GetScoreBySource")
	}
	if _, err := client.ListScores(); err == nil {
		t.Error("Expected error from nil client ListScores")
	}
	if err := client.DeleteClipByID("x"); err == nil {
		t.Error("Expected error from nil client DeleteClipByID")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Nil client Close should be a no-op, got %v", err)
	}
}
