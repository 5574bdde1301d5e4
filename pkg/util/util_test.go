package util

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"歌名":            "歌名",
		"  A / B  ":     "A _ B",
		`a:b*c?"d<e>f|`: "abcdef",
		"多个   空格":       "多个 空格",
		`x\y`:           "x_y",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.Bmp", "e.gif"} {
		if !IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = false", name)
		}
	}
	for _, name := range []string{"a.webp", "b.txt", "noext", "c.tiff"} {
		if IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = true", name)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/x/y/第1首 歌名1.jpg"); got != "第1首 歌名1" {
		t.Errorf("Stem = %q", got)
	}
	if got := Stem("001.圣哉三一歌1"); got != "001" {
		t.Errorf("Stem without image extension = %q", got)
	}
}

func TestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	if !IsDirectory(dir) {
		t.Error("temp dir not reported as directory")
	}
	f := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsDirectory(f) || IsDirectory(filepath.Join(dir, "missing")) {
		t.Error("file or missing path reported as directory")
	}
}

func TestDecodeName(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("第1首 歌名1")
	if err != nil {
		t.Fatal(err)
	}
	if got := DecodeName(gbk); got != "第1首 歌名1" {
		t.Errorf("DecodeName(gbk) = %q", got)
	}
	if got := DecodeName("已是UTF-8"); got != "已是UTF-8" {
		t.Errorf("DecodeName(utf8) = %q", got)
	}
}
