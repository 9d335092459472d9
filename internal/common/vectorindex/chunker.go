package vectorindex

import (
	"strings"
	"unicode/utf8"
)

var separators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most Size bytes, preferring
// paragraph, then line, then word boundaries, with Overlap bytes of
// trailing context carried into the next chunk.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return Splitter{Size: size, Overlap: overlap}
}

func (s Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	for _, c := range s.split(text, separators) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Chunks splits text and tags every piece with its document.
func (s Splitter) Chunks(sourceDoc, text string) []Chunk {
	pieces := s.Split(text)
	out := make([]Chunk, len(pieces))
	for i, p := range pieces {
		out[i] = Chunk{Text: p, SourceDoc: sourceDoc, ChunkIndex: i}
	}
	return out
}

func (s Splitter) split(text string, seps []string) []string {
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			sep, rest = c, seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardSplit(text)
	}

	var out, fits []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if len(piece) <= s.Size {
			fits = append(fits, piece)
			continue
		}
		if len(fits) > 0 {
			out = append(out, s.merge(fits, sep)...)
			fits = nil
		}
		if len(rest) == 0 {
			out = append(out, s.hardSplit(piece)...)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(fits) > 0 {
		out = append(out, s.merge(fits, sep)...)
	}
	return out
}

// merge packs pieces into chunks no larger than Size, starting each new
// chunk with as many trailing pieces as fit in Overlap.
func (s Splitter) merge(pieces []string, sep string) []string {
	var out, window []string
	length := func() int {
		return len(strings.Join(window, sep))
	}
	for _, p := range pieces {
		if len(window) > 0 && length()+len(sep)+len(p) > s.Size {
			out = append(out, strings.Join(window, sep))
			for len(window) > 0 && (length() > s.Overlap || length()+len(sep)+len(p) > s.Size) {
				window = window[1:]
			}
		}
		window = append(window, p)
	}
	if len(window) > 0 {
		out = append(out, strings.Join(window, sep))
	}
	return out
}

// hardSplit cuts on rune boundaries when no separator is left.
func (s Splitter) hardSplit(text string) []string {
	var out []string
	step := s.Size - s.Overlap
	for start := 0; start < len(text); {
		end := min(start+s.Size, len(text))
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end--
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
		next := start + step
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
