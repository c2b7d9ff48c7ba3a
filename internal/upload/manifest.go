package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema is the JSON Schema every batch manifest must satisfy.
// Field-level checks against the reference data (known subjects, topics,
// years) happen later in Uploader.validate; the schema only pins the
// shape of the document.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["curriculumId", "subjectId", "questions"],
  "properties": {
    "curriculumId": {"type": "string", "minLength": 1},
    "subjectId": {"type": "string", "minLength": 1},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["year", "season", "paperType", "variant", "number", "images"],
        "properties": {
          "year": {"type": "integer"},
          "season": {"type": "string"},
          "paperType": {"type": "integer"},
          "variant": {"type": "integer"},
          "number": {"type": "integer", "minimum": 1},
          "topics": {"type": "array", "items": {"type": "string"}},
          "images": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "answers": {
            "type": "array",
            "items": {
              "type": "object",
              "anyOf": [
                {"required": ["image"]},
                {"required": ["letter"]}
              ],
              "properties": {
                "image": {"type": "string", "minLength": 1},
                "letter": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

// ManifestAnswer is one answer entry: an image file shipped with the
// batch, a multiple-choice letter, or both.
type ManifestAnswer struct {
	Image  string `json:"image"`
	Letter string `json:"letter"`
}

// ManifestQuestion is one question entry in a batch manifest. Image
// fields name files shipped alongside the manifest.
type ManifestQuestion struct {
	Year      int              `json:"year"`
	Season    string           `json:"season"`
	PaperType int              `json:"paperType"`
	Variant   int              `json:"variant"`
	Number    int              `json:"number"`
	Topics    []string         `json:"topics"`
	Images    []string         `json:"images"`
	Answers   []ManifestAnswer `json:"answers"`
}

// Manifest describes a batch of questions for one subject.
type Manifest struct {
	CurriculumID string             `json:"curriculumId"`
	SubjectID    string             `json:"subjectId"`
	Questions    []ManifestQuestion `json:"questions"`
}

// ParseManifest validates raw manifest JSON against the batch schema
// and decodes it.
func ParseManifest(data []byte) (*Manifest, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, &ValidationError{Field: "manifest", Reason: strings.Join(reasons, "; ")}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// BatchResult reports what a batch upload published before it finished
// or failed.
type BatchResult struct {
	Published []string `json:"published"`
	Failed    string   `json:"failed,omitempty"`
}

// UploadBatch publishes every question in the manifest, resolving image
// names against files. Questions are published one by one; a failure
// stops the batch but already-published questions stay. Re-running the
// same batch is safe because each question upserts under the same id.
func (u *Uploader) UploadBatch(ctx context.Context, m *Manifest, files map[string][]byte) (*BatchResult, error) {
	res := &BatchResult{}
	for i, mq := range m.Questions {
		in, err := u.resolve(m, mq, files)
		if err != nil {
			res.Failed = fmt.Sprintf("question %d: %v", i+1, err)
			return res, err
		}
		q, err := u.Upload(ctx, in)
		if err != nil {
			res.Failed = fmt.Sprintf("question %d: %v", i+1, err)
			return res, err
		}
		res.Published = append(res.Published, q.ID)
	}
	return res, nil
}

// resolve turns a manifest entry into an Input by looking up its image
// files.
func (u *Uploader) resolve(m *Manifest, mq ManifestQuestion, files map[string][]byte) (Input, error) {
	in := Input{
		CurriculumID: m.CurriculumID,
		SubjectCode:  m.SubjectID,
		Year:         mq.Year,
		Season:       mq.Season,
		PaperType:    mq.PaperType,
		Variant:      mq.Variant,
		Number:       mq.Number,
		Topics:       mq.Topics,
	}
	for _, name := range mq.Images {
		data, ok := files[name]
		if !ok {
			return Input{}, invalid("images", "file %q missing from batch", name)
		}
		in.Images = append(in.Images, data)
	}
	for _, ans := range mq.Answers {
		var data []byte
		if ans.Image != "" {
			var ok bool
			if data, ok = files[ans.Image]; !ok {
				return Input{}, invalid("answers", "file %q missing from batch", ans.Image)
			}
		}
		in.Answers = append(in.Answers, AnswerInput{Image: data, Letter: ans.Letter})
	}
	return in, nil
}
