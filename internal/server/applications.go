package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"hiredesk/pkg/types"

	"github.com/alexedwards/flow"
)

func (s *Service) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	// Generous overall cap; the per-file limit is enforced below.
	r.Body = http.MaxBytesReader(w, r.Body, int64(len(types.DocumentCategories())+1)*s.config.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.logger.WithError(err).Info("failed to parse intake submission")
		s.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var sub submissionForm
	if err := decoder.Decode(&sub, r.MultipartForm.Value); err != nil {
		s.logger.WithError(err).Error("failed to decode intake form fields")
		s.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	if !sub.complete() {
		s.respondError(w, http.StatusBadRequest, "All required fields must be provided")
		return
	}

	info := sub.personalInfo()

	dup, err := s.apps.SubmittedOn(ctx, info.Email, info.Phone, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to check for duplicate application")
		s.respondError(w, http.StatusInternalServerError, "Failed to submit application")
		return
	}
	if dup {
		s.respondError(w, http.StatusBadRequest, "Duplicate application detected for today")
		return
	}

	// Validate every upload before writing any of them, so a disallowed
	// file is rejected without ever reaching storage.
	headers := map[string]*multipart.FileHeader{}
	for _, category := range types.DocumentCategories() {
		fhs := r.MultipartForm.File[category]
		if len(fhs) == 0 {
			continue
		}

		fh := fhs[0]
		if msg := uploadConstraintViolation(fh, s.config.MaxUploadBytes); msg != "" {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
		headers[category] = fh
	}

	documents := types.DocumentSet{}
	for category, fh := range headers {
		meta, err := s.saveUpload(fh)
		if err != nil {
			s.logger.WithError(err).WithField("category", category).Error("failed to store document")
			s.respondError(w, http.StatusInternalServerError, "Failed to submit application")
			return
		}
		documents[category] = *meta
	}

	app := &types.Application{
		Role:              sub.Role,
		Location:          sub.Location,
		PersonalInfo:      info,
		EmploymentStatus:  sub.EmploymentStatus,
		EmploymentHistory: sub.employmentHistory(),
		Documents:         documents,
		Status:            types.ApplicationStatusPending,
	}

	if err := s.apps.Create(ctx, app); err != nil {
		// Files written above stay on disk when the insert fails; the bulk
		// clear endpoint is the only sweeper. Known limitation.
		s.logger.WithError(err).Error("failed to insert application")
		s.respondError(w, http.StatusInternalServerError, "Failed to submit application")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":      app.ID,
		"message": "Application submitted successfully",
	})
}

func (s *Service) handleListApplications(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	filter := types.ApplicationFilter{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}

	apps, err := s.apps.Applications(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list applications")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}

	s.respondJSON(w, http.StatusOK, apps)
}

func (s *Service) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	id := flow.Param(ctx, "id")

	app, err := s.apps.Application(ctx, id)
	if errors.Is(err, types.ErrApplicationNotFound) {
		s.respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("failed to fetch application")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch application")
		return
	}

	s.respondJSON(w, http.StatusOK, app)
}

func (s *Service) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	id := flow.Param(ctx, "id")

	var body struct {
		Status types.ApplicationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.Valid() {
		s.respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	app, err := s.apps.UpdateStatus(ctx, id, body.Status)
	if errors.Is(err, types.ErrApplicationNotFound) {
		s.respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("failed to update application status")
		s.respondError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Application %s successfully", body.Status),
		"application": app,
	})
}

func (s *Service) handleUploadOfferLetter(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	id := flow.Param(ctx, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 2*s.config.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.logger.WithError(err).Info("failed to parse offer letter upload")
		s.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	fhs := r.MultipartForm.File["offerLetter"]
	if len(fhs) == 0 {
		s.respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	fh := fhs[0]
	if msg := uploadConstraintViolation(fh, s.config.MaxUploadBytes); msg != "" {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	meta, err := s.saveUpload(fh)
	if err != nil {
		s.logger.WithError(err).Error("failed to store offer letter")
		s.respondError(w, http.StatusInternalServerError, "Failed to upload offer letter")
		return
	}

	// A previously attached offer letter file stays on disk; only the
	// database reference is replaced. Known limitation.
	app, err := s.apps.SetOfferLetter(ctx, id, meta)
	if err != nil {
		if removeErr := s.uploads.Remove(meta.StoredPath); removeErr != nil {
			s.logger.WithError(removeErr).WithField("path", meta.StoredPath).Warn("failed to remove orphaned offer letter")
		}

		if errors.Is(err, types.ErrApplicationNotFound) {
			s.respondError(w, http.StatusNotFound, "Application not found")
			return
		}

		s.logger.WithError(err).WithField("id", id).Error("failed to attach offer letter")
		s.respondError(w, http.StatusInternalServerError, "Failed to upload offer letter")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":     "Offer letter uploaded successfully",
		"application": app,
	})
}

func (s *Service) handleRemoveOfferLetter(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	id := flow.Param(ctx, "id")

	app, err := s.apps.Application(ctx, id)
	if errors.Is(err, types.ErrApplicationNotFound) {
		s.respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("failed to fetch application for offer letter removal")
		s.respondError(w, http.StatusInternalServerError, "Failed to remove offer letter")
		return
	}

	if app.OfferLetter != nil {
		if err := s.uploads.Remove(app.OfferLetter.StoredPath); err != nil {
			s.logger.WithError(err).WithField("path", app.OfferLetter.StoredPath).Error("failed to delete offer letter file")
			s.respondError(w, http.StatusInternalServerError, "Failed to remove offer letter")
			return
		}
	}

	if err := s.apps.ClearOfferLetter(ctx, id); err != nil && !errors.Is(err, types.ErrApplicationNotFound) {
		s.logger.WithError(err).WithField("id", id).Error("failed to clear offer letter reference")
		s.respondError(w, http.StatusInternalServerError, "Failed to remove offer letter")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Offer letter removed successfully",
	})
}

func (s *Service) handleClearApplications(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	paths, err := s.apps.DeleteAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to clear applications")
		s.respondError(w, http.StatusInternalServerError, "Failed to clear records")
		return
	}

	// Rows are gone at this point; file removal is best effort.
	for _, path := range paths {
		if err := s.uploads.Remove(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("failed to remove stored file")
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "All records cleared successfully",
	})
}

func (s *Service) saveUpload(fh *multipart.FileHeader) (*types.DocumentMeta, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	saved, err := s.uploads.Save(f, fh.Filename)
	if err != nil {
		return nil, err
	}

	return &types.DocumentMeta{
		OriginalName: fh.Filename,
		StoredPath:   saved.Path,
		MimeType:     fh.Header.Get("Content-Type"),
		SizeBytes:    saved.Size,
	}, nil
}
