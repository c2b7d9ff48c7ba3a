package browse

import "github.com/noteoverflow/noteoverflow/internal/question"

// Chunk partitions an ordered list into consecutive sub-lists of at most
// size elements; the final chunk may be shorter. An empty input yields a
// single empty chunk so "page 1 of 1, empty" stays representable. A
// non-positive size produces one chunk holding the whole list.
func Chunk(list []question.Question, size int) [][]question.Question {
	if len(list) == 0 {
		return [][]question.Question{{}}
	}
	if size <= 0 {
		size = len(list)
	}

	chunks := make([][]question.Question, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		chunks = append(chunks, list[start:end])
	}
	return chunks
}
