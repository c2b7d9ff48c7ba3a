package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/storage"
	"github.com/noteoverflow/noteoverflow/internal/upload"
)

// handleUpload publishes a batch of questions. The request is multipart:
// a "manifest" part with the batch JSON, plus one part per image file
// named as the manifest references it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart body")
		return
	}

	manifestFile, _, err := r.FormFile("manifest")
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "manifest part is required")
		return
	}
	defer manifestFile.Close()

	manifestData, err := io.ReadAll(io.LimitReader(manifestFile, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "read manifest")
		return
	}
	manifest, err := upload.ParseManifest(manifestData)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	files := make(map[string][]byte)
	for name, headers := range r.MultipartForm.File {
		if name == "manifest" {
			continue
		}
		for _, h := range headers {
			if h.Size > s.maxUploadBytes {
				respondError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, name+" exceeds the size limit")
				return
			}
			f, err := h.Open()
			if err != nil {
				respondError(w, http.StatusBadRequest, CodeBadRequest, "read "+name)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				respondError(w, http.StatusBadRequest, CodeBadRequest, "read "+name)
				return
			}
			if !storage.IsWebP(data) {
				respondError(w, http.StatusBadRequest, CodeOnlyWebP, name+" is not a webp image")
				return
			}
			files[name] = data
		}
	}

	res, err := s.uploader.UploadBatch(r.Context(), manifest, files)
	if err != nil {
		var verr *upload.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, CodeBadRequest, verr.Error())
		case errors.Is(err, storage.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, err.Error())
		case errors.Is(err, storage.ErrNotWebP):
			respondError(w, http.StatusBadRequest, CodeOnlyWebP, err.Error())
		default:
			s.logger.Error("batch upload failed", "error", err, "published", len(res.Published))
			respondError(w, http.StatusBadGateway, CodeUploadFailed, "image upload failed")
		}
		return
	}

	respond(w, http.StatusCreated, res)
}

// handleExport streams a subject's question bank as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	curriculum := r.URL.Query().Get("curriculumId")
	subjectCode := r.URL.Query().Get("subjectId")

	sub, ok := s.ref.Subject(curriculum, subjectCode)
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "unknown curriculum or subject")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+subjectCode+`-questions.xlsx"`)

	if err := s.exporter.WriteWorkbook(r.Context(), question.Criteria{SubjectKey: sub.Name}, w); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Error("export failed", "subject", sub.Name, "error", err)
	}
}
