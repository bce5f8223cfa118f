package wordstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "words.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	words := []struct {
		word      string
		frequency uint64
		readings  []string
		meanings  []string
	}{
		{"猫", 100, []string{"ねこ"}, []string{"cat"}},
		{"犬", 200, []string{"いぬ"}, []string{"dog"}},
		{"猫舌", 5000, []string{"ねこじた"}, []string{"dislike of very hot food"}},
	}
	for _, w := range words {
		if err := s.AddWord(ctx, w.word, w.frequency, w.readings, w.meanings); err != nil {
			t.Fatalf("seed %q: %v", w.word, err)
		}
	}
}

func TestRandomWordRespectsFrequencyRange(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	f := Filter{MinFrequency: 150, MaxFrequency: 300, UseMax: true}
	for i := 0; i < 10; i++ {
		info, err := s.RandomWord(context.Background(), f)
		if err != nil {
			t.Fatalf("random word: %v", err)
		}
		if info.Word != "犬" {
			t.Fatalf("expected 犬 in range, got %q", info.Word)
		}
	}
}

func TestRandomWordIgnoresMaxWhenDisabled(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	n, err := s.Count(context.Background(), Filter{MinFrequency: 150, MaxFrequency: 300, UseMax: false})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 words above 150 with max disabled, got %d", n)
	}
}

func TestRandomWordFiltersByWordPart(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	info, err := s.RandomWord(context.Background(), Filter{WordPart: "舌"})
	if err != nil {
		t.Fatalf("random word: %v", err)
	}
	if info.Word != "猫舌" {
		t.Fatalf("expected 猫舌, got %q", info.Word)
	}
	if len(info.Readings) != 1 || info.Readings[0].Reading != "ねこじた" {
		t.Fatalf("unexpected readings: %+v", info.Readings)
	}
	if len(info.Meanings) != 1 || len(info.Meanings[0]) != 1 {
		t.Fatalf("unexpected meanings: %+v", info.Meanings)
	}
}

func TestRandomWordNoMatch(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	_, err := s.RandomWord(context.Background(), Filter{MinFrequency: 10000})
	if !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords, got %v", err)
	}
}

func TestFilterFromSettings(t *testing.T) {
	part := "猫"
	f := FilterFromSettings(protocol.GameSettings{
		MinFrequency:      10,
		MaxFrequency:      500,
		UsingMaxFrequency: true,
		WordPart:          &part,
	})
	if f.MinFrequency != 10 || f.MaxFrequency != 500 || !f.UseMax || f.WordPart != "猫" {
		t.Fatalf("unexpected filter: %+v", f)
	}
}
