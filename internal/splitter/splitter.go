// ABOUTME: Deterministic text splitting into size-bounded chunks
// ABOUTME: Recursive-character and markdown-aware strategies
package splitter

import (
	"strings"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/util"
)

// MaxPreviewBytes caps the whole-page copy carried by every chunk.
const MaxPreviewBytes = 36000

const (
	DefaultChunkSize    = 256
	DefaultChunkOverlap = 1
)

// recursiveSeparators is the backoff ladder: paragraph, line, sentence,
// word, then raw characters.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Split divides a fetched page into ordered chunks. Each chunk carries
// the source URL, a byte-bounded preview of the whole page, and an md5
// hash of its own content. Pure function: no network or storage side
// effects.
func Split(text, sourceURL string, opts models.IngestOptions) ([]models.Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrNoChunks
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	var pieces []string
	switch opts.SplitStrategy {
	case models.SplitMarkdown:
		pieces = splitMarkdown(text)
	default:
		pieces = splitRecursive(text, recursiveSeparators, chunkSize, overlap)
	}

	preview := util.TruncateByBytes(text, MaxPreviewBytes)

	chunks := make([]models.Chunk, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:   p,
			SourceURL: sourceURL,
			Text:      preview,
			Hash:      util.ContentHash(p),
		})
	}

	if len(chunks) == 0 {
		return nil, models.ErrNoChunks
	}
	return chunks, nil
}

// splitRecursive splits text on the coarsest separator present, recurses
// into oversized pieces with the finer separators, and merges small
// pieces back together up to chunkSize with overlap between neighbors.
func splitRecursive(text string, separators []string, chunkSize, overlap int) []string {
	sep := ""
	rest := []string{}
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return splitByCharacters(text, chunkSize, overlap)
	}

	parts := strings.Split(text, sep)

	var result []string
	var pending []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if runeLen(p) <= chunkSize {
			pending = append(pending, p)
			continue
		}
		// Oversized piece: flush what fits, then back off to finer separators
		if len(pending) > 0 {
			result = append(result, mergePieces(pending, sep, chunkSize, overlap)...)
			pending = nil
		}
		result = append(result, splitRecursive(p, rest, chunkSize, overlap)...)
	}
	if len(pending) > 0 {
		result = append(result, mergePieces(pending, sep, chunkSize, overlap)...)
	}
	return result
}

// mergePieces greedily packs pieces into chunks of at most chunkSize
// characters, re-joining with the separator they were split on. When a
// chunk is emitted, pieces are dropped from the front until the running
// total is within the overlap budget, so consecutive chunks share up to
// overlap characters.
func mergePieces(pieces []string, sep string, chunkSize, overlap int) []string {
	sepLen := runeLen(sep)

	var chunks []string
	var current []string
	total := 0

	joinLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		pLen := runeLen(p)
		if total+pLen+joinLen(len(current)) > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, sep))
			for len(current) > 0 && (total > overlap || total+pLen+joinLen(len(current)) > chunkSize) {
				total -= runeLen(current[0]) + joinLen(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += pLen + joinLen(len(current)-1)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

// splitByCharacters is the last-resort strategy: fixed-size rune windows
// stepping by chunkSize-overlap.
func splitByCharacters(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitMarkdown splits at heading boundaries, treating fenced code
// blocks as opaque. Chunk size and overlap are ignored by design.
func splitMarkdown(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string
	inFence := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && isHeading(trimmed) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	if len(sections) == 0 {
		return []string{text}
	}
	return sections
}

func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	return i <= 6 && i < len(line) && line[i] == ' '
}

func runeLen(s string) int {
	return len([]rune(s))
}
