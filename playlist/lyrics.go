package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// lyricsExts are tried in order next to the audio file.
var lyricsExts = []string{".lrc", ".txt"}

// SidecarLyrics returns the lyrics file sharing the track's base name, or
// "" when there is none.
func SidecarLyrics(audioPath string) string {
	stem := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	for _, ext := range lyricsExts {
		for _, cand := range []string{stem + ext, stem + strings.ToUpper(ext)} {
			if fi, err := os.Stat(cand); err == nil && fi.Mode().IsRegular() {
				return cand
			}
		}
	}
	return ""
}

var (
	// [mm:ss], [mm:ss.xx] and the word-level <mm:ss.xx> of enhanced LRC.
	lrcStamp = regexp.MustCompile(`[\[<]\d{1,3}:\d{2}(?:[.:]\d{1,3})?[\]>]`)
	// [ar:Artist], [ti:Title], [offset:+100] and similar header tags.
	lrcTag = regexp.MustCompile(`^\[[a-zA-Z]+:[^\]]*\]$`)
)

// ReadLyrics loads a lyrics file as plain text, one line per lyric line.
// LRC timing and header tags are stripped; blank lines are dropped.
func ReadLyrics(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("lyrics: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := CleanLyricLine(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("lyrics: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// CleanLyricLine strips LRC markup from one line.
func CleanLyricLine(line string) string {
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if lrcTag.MatchString(line) {
		return ""
	}
	line = lrcStamp.ReplaceAllString(line, "")
	return strings.Join(strings.Fields(line), " ")
}
