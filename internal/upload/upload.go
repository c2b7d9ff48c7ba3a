package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
	"github.com/noteoverflow/noteoverflow/internal/storage"
)

// maxImageUploads bounds how many images are pushed to the object store
// at the same time during a batch.
const maxImageUploads = 4

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("upload: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AnswerInput is one answer for a question: a marked-scheme image, a
// multiple-choice letter, or both. At least one must be present.
type AnswerInput struct {
	Image  []byte
	Letter string
}

// Input is a single question to be published: its paper coordinates,
// topic tags, question images and answer images.
type Input struct {
	CurriculumID string
	SubjectCode  string
	Year         int
	Season       string
	PaperType    int
	Variant      int
	Number       int
	Topics       []string
	Images       [][]byte
	Answers      []AnswerInput
}

// Uploader validates question submissions, pushes their images to the
// object store and records them in the question store. Uploads are
// idempotent: re-running a failed batch overwrites the same objects and
// upserts the same rows.
type Uploader struct {
	store   question.Store
	ref     *reference.Loader
	objects storage.ObjectStore
	logger  *slog.Logger
}

// New creates an Uploader.
func New(store question.Store, ref *reference.Loader, objects storage.ObjectStore, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, ref: ref, objects: objects, logger: logger}
}

// validate checks every field of in against the reference data and
// returns the resolved subject. Each field is rejected on its own, so
// the first broken field is reported even when the rest are fine.
func (u *Uploader) validate(in Input) (reference.Subject, question.Season, error) {
	if in.CurriculumID == "" {
		return reference.Subject{}, "", invalid("curriculumId", "must not be empty")
	}
	if _, ok := u.ref.Curriculum(in.CurriculumID); !ok {
		return reference.Subject{}, "", invalid("curriculumId", "unknown curriculum %q", in.CurriculumID)
	}
	sub, ok := u.ref.Subject(in.CurriculumID, in.SubjectCode)
	if !ok {
		return reference.Subject{}, "", invalid("subjectId", "unknown subject %q", in.SubjectCode)
	}
	if !sub.KnowsYear(in.Year) {
		return reference.Subject{}, "", invalid("year", "%d is not offered for %s", in.Year, sub.Name)
	}
	season, err := question.ParseSeason(in.Season)
	if err != nil {
		return reference.Subject{}, "", invalid("season", "%v", err)
	}
	if !sub.KnowsSeason(string(season)) {
		return reference.Subject{}, "", invalid("season", "%s is not offered for %s", season, sub.Name)
	}
	if !sub.KnowsPaperType(in.PaperType) {
		return reference.Subject{}, "", invalid("paperType", "%d is not offered for %s", in.PaperType, sub.Name)
	}
	if in.Variant < 1 || in.Variant > 9 {
		return reference.Subject{}, "", invalid("variant", "%d out of range", in.Variant)
	}
	if in.Number < 1 {
		return reference.Subject{}, "", invalid("number", "must be positive")
	}
	for _, topic := range in.Topics {
		if !sub.KnowsTopic(topic) {
			return reference.Subject{}, "", invalid("topic", "unknown topic %q for %s", topic, sub.Name)
		}
	}
	if len(in.Images) == 0 {
		return reference.Subject{}, "", invalid("images", "at least one question image is required")
	}
	for i, img := range in.Images {
		if !storage.IsWebP(img) {
			return reference.Subject{}, "", invalid("images", "image %d is not webp", i)
		}
	}
	for i, ans := range in.Answers {
		hasLetter := strings.TrimSpace(ans.Letter) != ""
		if len(ans.Image) == 0 {
			if !hasLetter {
				return reference.Subject{}, "", invalid("answers", "answer %d needs an image or a letter", i)
			}
			continue
		}
		if !storage.IsWebP(ans.Image) {
			return reference.Subject{}, "", invalid("answers", "answer %d image is not webp", i)
		}
	}
	return sub, season, nil
}

// Upload publishes one question. The flow is: validate, record the
// paper's metadata values so the browse filters can offer them, push
// all images as one batch, then upsert the question row. A failed
// image batch aborts before the row is written; the caller can simply
// retry the same input.
func (u *Uploader) Upload(ctx context.Context, in Input) (*question.Question, error) {
	sub, season, err := u.validate(in)
	if err != nil {
		return nil, err
	}

	paperCode := question.PaperCode(sub.Code, in.PaperType, in.Variant, season, in.Year)
	id := question.ID(sub.Name, paperCode, in.Number)

	if err := u.ensureMetadata(ctx, sub.Name, in, season); err != nil {
		return nil, fmt.Errorf("record metadata: %w", err)
	}

	imageURLs, answerURLs, err := u.putImages(ctx, sub.Code, paperCode, in)
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}

	q := question.Question{
		ID:         id,
		SubjectKey: sub.Name,
		PaperCode:  paperCode,
		Number:     in.Number,
		Year:       in.Year,
		Season:     season,
		PaperType:  in.PaperType,
		Variant:    in.Variant,
		Topics:     in.Topics,
		ImageURLs:  imageURLs,
	}
	for i, ans := range in.Answers {
		q.Answers = append(q.Answers, question.Answer{
			ImageURL: answerURLs[i],
			Letter:   ans.Letter,
		})
	}

	if err := u.store.Upsert(ctx, q); err != nil {
		return nil, fmt.Errorf("store question: %w", err)
	}

	u.logger.Info("question uploaded",
		"question_id", id,
		"paper", paperCode,
		"images", len(imageURLs),
		"answers", len(q.Answers))
	return &q, nil
}

// ensureMetadata records the paper's dimension values for the subject.
// The writes are independent, so they run concurrently.
func (u *Uploader) ensureMetadata(ctx context.Context, subjectKey string, in Input, season question.Season) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return u.store.EnsureValue(ctx, subjectKey, question.DimYear, fmt.Sprintf("%d", in.Year))
	})
	g.Go(func() error {
		return u.store.EnsureValue(ctx, subjectKey, question.DimSeason, string(season))
	})
	g.Go(func() error {
		return u.store.EnsureValue(ctx, subjectKey, question.DimPaperType, fmt.Sprintf("%d", in.PaperType))
	})
	for _, topic := range in.Topics {
		g.Go(func() error {
			return u.store.EnsureValue(ctx, subjectKey, question.DimTopic, topic)
		})
	}
	return g.Wait()
}

// putImages pushes the question and answer images as one batch. Any
// failure cancels the remaining uploads and fails the whole batch.
func (u *Uploader) putImages(ctx context.Context, subjectCode, paperCode string, in Input) (imageURLs, answerURLs []string, err error) {
	imageURLs = make([]string, len(in.Images))
	answerURLs = make([]string, len(in.Answers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageUploads)

	for i, img := range in.Images {
		key := fmt.Sprintf("%s/%s/Q%d-%d.webp", subjectCode, paperCode, in.Number, i+1)
		g.Go(func() error {
			url, err := u.objects.Put(ctx, key, img)
			if err != nil {
				return err
			}
			imageURLs[i] = url
			return nil
		})
	}
	for i, ans := range in.Answers {
		if len(ans.Image) == 0 {
			// Letter-only answer, nothing to store.
			continue
		}
		key := fmt.Sprintf("%s/%s/Q%d-answer-%d.webp", subjectCode, paperCode, in.Number, i+1)
		g.Go(func() error {
			url, err := u.objects.Put(ctx, key, ans.Image)
			if err != nil {
				return err
			}
			answerURLs[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return imageURLs, answerURLs, nil
}
