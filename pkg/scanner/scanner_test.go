package scanner

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

var discard = log.New(io.Discard, "", 0)

type upperConverter map[string]string

func (c upperConverter) TradToSim(text string) string {
	if out, ok := c[text]; ok {
		return out
	}
	return text
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "c.txt", "d.gif", "e.bmp", "f.jpeg", "g.webp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}
	got, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	want := []string{"a.JPG", "b.png", "d.gif", "e.bmp", "f.jpeg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListImages = %v, want %v", names, want)
	}
}

func TestListImagesMissingDir(t *testing.T) {
	if _, err := ListImages(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestGroupSongs(t *testing.T) {
	s := NewSongScanner(nil, discard)
	paths := []string{
		"/in/第1首 歌名2.jpg",
		"/in/001.圣哉三一歌1.png",
		"/in/第1首 歌名1.jpg",
		"/in/cover.jpg",
		"/in/第1首 歌名10.jpg",
		"/in/第2首 歌名1.jpg",
	}
	groups, unparsed := s.GroupSongs(paths)
	if !reflect.DeepEqual(unparsed, []string{"/in/cover.jpg"}) {
		t.Errorf("unparsed = %v", unparsed)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups: %+v", len(groups), groups)
	}
	first := groups[0]
	if first.Key() != "1_歌名" || first.Single() {
		t.Errorf("first group = %+v", first)
	}
	wantPaths := []string{"/in/第1首 歌名1.jpg", "/in/第1首 歌名2.jpg", "/in/第1首 歌名10.jpg"}
	if !reflect.DeepEqual(first.Paths(), wantPaths) {
		t.Errorf("first group pages = %v, want %v", first.Paths(), wantPaths)
	}
	if groups[1].Key() != "001_圣哉三一歌" || !groups[1].Single() {
		t.Errorf("second group = %+v", groups[1])
	}
	if groups[2].Key() != "2_歌名" {
		t.Errorf("same name with different id must not merge: %+v", groups[2])
	}
}

func TestGroupSongsDuplicatePagesKeepOrder(t *testing.T) {
	s := NewSongScanner(nil, discard)
	paths := []string{
		"/a/第3首 歌2.jpg",
		"/b/第3首 歌1.png",
		"/c/第3首 歌1.jpg",
	}
	groups, _ := s.GroupSongs(paths)
	if len(groups) != 1 {
		t.Fatalf("got %d groups", len(groups))
	}
	want := []string{"/b/第3首 歌1.png", "/c/第3首 歌1.jpg", "/a/第3首 歌2.jpg"}
	if !reflect.DeepEqual(groups[0].Paths(), want) {
		t.Errorf("pages = %v, want %v", groups[0].Paths(), want)
	}
}

func TestGroupSongsNormalizesNames(t *testing.T) {
	s := NewSongScanner(upperConverter{"聖哉三一歌": "圣哉三一歌"}, discard)
	groups, _ := s.GroupSongs([]string{"/in/001.圣哉三一歌1.png", "/in/001.聖哉三一歌2.png"})
	if len(groups) != 1 || len(groups[0].Pages) != 2 {
		t.Fatalf("expected traditional and simplified names to merge, got %+v", groups)
	}
	if groups[0].SongName != "圣哉三一歌" {
		t.Errorf("SongName = %q", groups[0].SongName)
	}
}
