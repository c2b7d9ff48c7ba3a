package question

import "fmt"

// PaperCode derives the paper code for a subject/session, e.g.
// "9702_12_MJ_23" for Physics paper 1 variant 2, Summer 2023.
func PaperCode(subjectCode string, paperType, variant int, season Season, year int) string {
	return fmt.Sprintf("%s_%d%d_%s_%02d", subjectCode, paperType, variant, season.Code(), year%100)
}

// ID derives the unique question identifier from the subject's full name,
// the paper code and the question number, e.g.
// "Physics (9702)-9702_12_MJ_23-questions-Q4".
func ID(subjectName, paperCode string, number int) string {
	return fmt.Sprintf("%s-%s-questions-Q%d", subjectName, paperCode, number)
}
