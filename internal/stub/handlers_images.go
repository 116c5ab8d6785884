package stub

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

// maxUploadSize ограничивает суммарный размер multipart-запроса.
const maxUploadSize = 32 << 20

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleImageUpload"
	log := s.log.With(slog.String("op", op))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	dealershipID := r.FormValue("dealership_id")
	if dealershipID == "" {
		respondError(w, r, http.StatusBadRequest, "dealership_id is required")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		respondError(w, r, http.StatusBadRequest, "no images provided")
		return
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		names = append(names, fh.Filename)
	}

	images := s.store.AddImages(dealershipID, names, models.ImageSourceUpload)
	log.Info("images uploaded",
		slog.String("dealership_id", dealershipID), slog.Int("count", len(images)))

	respondOK(w, r, map[string]any{"images": images})
}

func (s *Server) handleImageList(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipID")
	respondOK(w, r, map[string]any{"images": s.store.ImagesFor(dealershipID)})
}
