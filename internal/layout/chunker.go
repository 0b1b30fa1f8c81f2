package layout

import "strings"

// Chunk splits a numbered document into pieces of at most maxChars,
// accumulating whole lines: a boundary never falls inside a numbered line.
// The only exception is a single line longer than maxChars, which is
// hard-split at the character level.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) > maxChars {
			flush()
			for _, piece := range hardSplit(line, maxChars) {
				chunks = append(chunks, piece)
			}
			continue
		}

		need := len(line)
		if cur.Len() > 0 {
			need += 1 // joining newline
		}
		if cur.Len()+need > maxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	flush()

	return chunks
}

func hardSplit(line string, maxChars int) []string {
	var pieces []string
	runes := []rune(line)
	for len(runes) > 0 {
		n := maxChars
		if n > len(runes) {
			n = len(runes)
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}
