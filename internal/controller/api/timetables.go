package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/service"
	"go.uber.org/zap"
)

// multipartOverhead is the allowance for form fields, part headers and
// boundaries on top of the image limit.
const multipartOverhead = 1 << 20

type analyzeResponse struct {
	Success     bool            `json:"success"`
	TimetableID int64           `json:"timetable_id"`
	Courses     []*model.Course `json:"courses"`
	ImageURL    string          `json:"image_url"`
	Message     string          `json:"message"`
}

// HandleAnalyzeTimetable accepts a multipart upload with image, userId and
// semester fields and replaces the user's snapshot for that semester.
func (h *Handlers) HandleAnalyzeTimetable(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "expected a multipart form with image, userId and semester")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	in := service.AnalyzeInput{Semester: r.FormValue("semester")}

	if raw := strings.TrimSpace(r.FormValue("userId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "userId must be an integer")
			return
		}
		in.UserID = id
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// reported by the service together with the other missing fields
	case err != nil:
		h.writeError(w, http.StatusBadRequest, "could not read image")
		return
	default:
		defer file.Close()

		if header.Size > h.maxUploadBytes {
			h.writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "could not read image")
			return
		}
		in.Image = data
		in.ContentType = header.Header.Get("Content-Type")
	}

	res, err := h.timetableService.Analyze(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "user not found", "Failed to analyze timetable")
		return
	}

	h.writeJSON(w, http.StatusOK, analyzeResponse{
		Success:     true,
		TimetableID: res.Timetable.ID,
		Courses:     res.Timetable.Courses,
		ImageURL:    res.Timetable.ImageURL,
		Message:     res.Message,
	})
}

// HandleListTimetables returns the user's snapshots, newest first.
func (h *Handlers) HandleListTimetables(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timetables, err := h.timetableService.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "user not found", "Failed to fetch timetables")
		return
	}

	h.writeJSON(w, http.StatusOK, timetables)
}
