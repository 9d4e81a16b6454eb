package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"hiredesk/internal/storage"
	"hiredesk/internal/utils"
	"hiredesk/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	apps           map[string]*types.Application
	order          []string
	duplicateToday bool
	createErr      error
	lastFilter     types.ApplicationFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: map[string]*types.Application{}}
}

func (f *fakeStore) add(app *types.Application) *types.Application {
	if app.ID == "" {
		app.ID = utils.NanoID()
	}
	if app.Status == "" {
		app.Status = types.ApplicationStatusPending
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	f.apps[app.ID] = app
	f.order = append(f.order, app.ID)
	return app
}

func (f *fakeStore) Create(_ context.Context, app *types.Application) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(app)
	return nil
}

func (f *fakeStore) Application(_ context.Context, id string) (*types.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}
	return app, nil
}

func (f *fakeStore) Applications(_ context.Context, filter types.ApplicationFilter) ([]*types.Application, error) {
	f.lastFilter = filter

	out := make([]*types.Application, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.apps[id])
	}
	return out, nil
}

func (f *fakeStore) SubmittedOn(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return f.duplicateToday, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status types.ApplicationStatus) (*types.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}
	app.Status = status
	return app, nil
}

func (f *fakeStore) SetOfferLetter(_ context.Context, id string, doc *types.DocumentMeta) (*types.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}
	app.OfferLetter = doc
	return app, nil
}

func (f *fakeStore) ClearOfferLetter(_ context.Context, id string) error {
	app, ok := f.apps[id]
	if !ok {
		return types.ErrApplicationNotFound
	}
	app.OfferLetter = nil
	return nil
}

func (f *fakeStore) DeleteAll(_ context.Context) ([]string, error) {
	paths := []string{}
	for _, app := range f.apps {
		for _, doc := range app.Documents {
			paths = append(paths, doc.StoredPath)
		}
		if app.OfferLetter != nil {
			paths = append(paths, app.OfferLetter.StoredPath)
		}
	}
	f.apps = map[string]*types.Application{}
	f.order = nil
	return paths, nil
}

type testEnv struct {
	svc     *Service
	store   *fakeStore
	uploads *storage.LocalStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	uploads, err := storage.New(t.TempDir())
	require.NoError(t, err)

	fake := newFakeStore()

	config := &types.Config{
		ServerPort:      8080,
		ReadTimeoutSec:  1,
		WriteTimeoutSec: 1,
		UploadDir:       uploads.Dir(),
		MaxUploadBytes:  5 << 20,
	}

	svc, err := New(config, logger, fake, uploads)
	require.NoError(t, err)

	return &testEnv{svc: svc, store: fake, uploads: uploads}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.svc.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) uploadCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.uploads.Dir())
	require.NoError(t, err)
	return len(entries)
}

type testFile struct {
	field       string
	name        string
	contentType string
	content     string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files []testFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}

	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		header.Set("Content-Type", file.contentType)

		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(file.content))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"role":             "Backend Engineer",
		"location":         "Hyderabad",
		"fullName":         "John Carter",
		"email":            "john.carter@example.com",
		"phone":            "9876543210",
		"gender":           "male",
		"fatherName":       "Paul Carter",
		"fatherPhone":      "9876543211",
		"employmentStatus": "fresher",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmitApplicationMissingRequiredField(t *testing.T) {
	requiredFields := []string{"role", "location", "fullName", "email", "phone", "gender", "fatherName", "fatherPhone"}

	for _, missing := range requiredFields {
		t.Run(missing, func(t *testing.T) {
			env := newTestEnv(t)

			fields := validFields()
			delete(fields, missing)

			rec := env.do(multipartRequest(t, "/api/applications", fields, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "All required fields must be provided", decodeBody(t, rec)["error"])
			assert.Empty(t, env.store.apps)
		})
	}
}

func TestSubmitApplicationDuplicateDay(t *testing.T) {
	env := newTestEnv(t)
	env.store.duplicateToday = true

	rec := env.do(multipartRequest(t, "/api/applications", validFields(), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duplicate application detected for today", decodeBody(t, rec)["error"])
	assert.Empty(t, env.store.apps)
}

func TestSubmitApplicationFresher(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(multipartRequest(t, "/api/applications", validFields(), []testFile{
		{field: "ssc", name: "ssc marks.pdf", contentType: "application/pdf", content: "%PDF-1.4 ssc"},
		{field: "graduation", name: "degree.png", contentType: "image/png", content: "\x89PNG fake"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Application submitted successfully", body["message"])

	require.Len(t, env.store.apps, 1)
	app := env.store.apps[body["id"].(string)]
	require.NotNil(t, app)

	assert.Equal(t, types.ApplicationStatusPending, app.Status)
	assert.Nil(t, app.EmploymentHistory)
	assert.Equal(t, "John Carter", app.PersonalInfo.FullName)

	require.Len(t, app.Documents, 2)
	ssc := app.Documents[types.DocCategorySSC]
	assert.Equal(t, "ssc marks.pdf", ssc.OriginalName)
	assert.Equal(t, "application/pdf", ssc.MimeType)
	assert.Equal(t, int64(len("%PDF-1.4 ssc")), ssc.SizeBytes)
	assert.True(t, env.uploads.Exists(ssc.StoredPath))

	grad := app.Documents[types.DocCategoryGraduation]
	assert.True(t, env.uploads.Exists(grad.StoredPath))

	assert.Equal(t, 2, env.uploadCount(t))
}

func TestSubmitApplicationExperienced(t *testing.T) {
	env := newTestEnv(t)

	fields := validFields()
	fields["employmentStatus"] = "experienced"
	fields["companyName"] = "Acme Systems"
	fields["companyLocation"] = "Bengaluru"
	fields["experience"] = "4 years"

	rec := env.do(multipartRequest(t, "/api/applications", fields, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, env.store.apps, 1)
	for _, app := range env.store.apps {
		require.NotNil(t, app.EmploymentHistory)
		assert.Equal(t, "Acme Systems", app.EmploymentHistory.CompanyName)
		assert.Equal(t, "Bengaluru", app.EmploymentHistory.Location)
		assert.Equal(t, "4 years", app.EmploymentHistory.Experience)
	}
}

func TestSubmitApplicationRejectsDisallowedType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(multipartRequest(t, "/api/applications", validFields(), []testFile{
		{field: "inter", name: "notes.txt", contentType: "text/plain", content: "not a certificate"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only PDF, JPG, and PNG files are allowed!", decodeBody(t, rec)["error"])

	// rejected before reaching storage
	assert.Equal(t, 0, env.uploadCount(t))
	assert.Empty(t, env.store.apps)
}

func TestSubmitApplicationRejectsMismatchedMime(t *testing.T) {
	env := newTestEnv(t)

	// extension is fine, declared MIME type is not
	rec := env.do(multipartRequest(t, "/api/applications", validFields(), []testFile{
		{field: "ssc", name: "cert.pdf", contentType: "application/zip", content: "PK"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.uploadCount(t))
}

func TestSubmitApplicationRejectsOversizeFile(t *testing.T) {
	env := newTestEnv(t)
	env.svc.config.MaxUploadBytes = 4096

	rec := env.do(multipartRequest(t, "/api/applications", validFields(), []testFile{
		{field: "ssc", name: "big.pdf", contentType: "application/pdf", content: strings.Repeat("a", 8192)},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "size limit")
	assert.Equal(t, 0, env.uploadCount(t))
	assert.Empty(t, env.store.apps)
}

func TestListApplications(t *testing.T) {
	env := newTestEnv(t)
	env.store.add(&types.Application{Role: "Backend Engineer", Status: types.ApplicationStatusApproved})
	env.store.add(&types.Application{Role: "QA Analyst", Status: types.ApplicationStatusPending})

	req := httptest.NewRequest(http.MethodGet, "/api/applications?search=john&status=approved", nil)
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)

	var apps []types.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
	assert.Len(t, apps, 2)

	// query params flow into the store filter untouched
	assert.Equal(t, "john", env.store.lastFilter.Search)
	assert.Equal(t, "approved", env.store.lastFilter.Status)
}

func TestListApplicationsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/applications", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetApplication(t *testing.T) {
	env := newTestEnv(t)
	app := env.store.add(&types.Application{Role: "Backend Engineer"})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/applications/"+app.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, "Backend Engineer", got.Role)
}

func TestGetApplicationNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/applications/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", decodeBody(t, rec)["error"])
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	app := env.store.add(&types.Application{Role: "Backend Engineer", Status: types.ApplicationStatusRejected})

	req := httptest.NewRequest(http.MethodPut, "/api/applications/"+app.ID+"/status", strings.NewReader(`{"status":"approved"}`))
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Application approved successfully", body["message"])
	assert.Equal(t, types.ApplicationStatusApproved, env.store.apps[app.ID].Status)
}

func TestUpdateStatusInvalid(t *testing.T) {
	env := newTestEnv(t)
	app := env.store.add(&types.Application{Role: "Backend Engineer"})

	for _, payload := range []string{`{"status":"archived"}`, `{"status":""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPut, "/api/applications/"+app.ID+"/status", strings.NewReader(payload))
		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		assert.Equal(t, "Invalid status", decodeBody(t, rec)["error"])
	}

	assert.Equal(t, types.ApplicationStatusPending, env.store.apps[app.ID].Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/applications/missing/status", strings.NewReader(`{"status":"approved"}`))
	rec := env.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadOfferLetter(t *testing.T) {
	env := newTestEnv(t)
	app := env.store.add(&types.Application{Role: "Backend Engineer"})

	req := multipartRequest(t, "/api/applications/"+app.ID+"/offer-letter", nil, []testFile{
		{field: "offerLetter", name: "offer.pdf", contentType: "application/pdf", content: "%PDF-1.4 offer"},
	})
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Offer letter uploaded successfully", body["message"])

	letter := env.store.apps[app.ID].OfferLetter
	require.NotNil(t, letter)
	assert.Equal(t, "offer.pdf", letter.OriginalName)
	assert.True(t, env.uploads.Exists(letter.StoredPath))
}

func TestUploadOfferLetterMissingApplication(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/api/applications/missing/offer-letter", nil, []testFile{
		{field: "offerLetter", name: "offer.pdf", contentType: "application/pdf", content: "%PDF-1.4 offer"},
	})
	rec := env.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", decodeBody(t, rec)["error"])

	// the just-written file is compensated away
	assert.Equal(t, 0, env.uploadCount(t))
}

func TestUploadOfferLetterNoFile(t *testing.T) {
	env := newTestEnv(t)
	app := env.store.add(&types.Application{Role: "Backend Engineer"})

	rec := env.do(multipartRequest(t, "/api/applications/"+app.ID+"/offer-letter", map[string]string{"note": "x"}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decodeBody(t, rec)["error"])
}

func TestRemoveOfferLetter(t *testing.T) {
	env := newTestEnv(t)

	saved, err := env.uploads.Save(strings.NewReader("%PDF-1.4 offer"), "offer.pdf")
	require.NoError(t, err)

	app := env.store.add(&types.Application{
		Role: "Backend Engineer",
		OfferLetter: &types.DocumentMeta{
			OriginalName: "offer.pdf",
			StoredPath:   saved.Path,
			MimeType:     "application/pdf",
			SizeBytes:    saved.Size,
		},
	})

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/applications/"+app.ID+"/offer-letter", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Offer letter removed successfully", decodeBody(t, rec)["message"])
	assert.Nil(t, env.store.apps[app.ID].OfferLetter)
	assert.False(t, env.uploads.Exists(saved.Path))
}

func TestRemoveOfferLetterNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/applications/missing/offer-letter", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearApplications(t *testing.T) {
	env := newTestEnv(t)

	doc, err := env.uploads.Save(strings.NewReader("%PDF-1.4 ssc"), "ssc.pdf")
	require.NoError(t, err)
	letter, err := env.uploads.Save(strings.NewReader("%PDF-1.4 offer"), "offer.pdf")
	require.NoError(t, err)

	env.store.add(&types.Application{
		Role: "Backend Engineer",
		Documents: types.DocumentSet{
			types.DocCategorySSC: {OriginalName: "ssc.pdf", StoredPath: doc.Path},
		},
		OfferLetter: &types.DocumentMeta{OriginalName: "offer.pdf", StoredPath: letter.Path},
	})
	env.store.add(&types.Application{Role: "QA Analyst"})

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/applications", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All records cleared successfully", decodeBody(t, rec)["message"])

	assert.Empty(t, env.store.apps)
	assert.Equal(t, 0, env.uploadCount(t))

	// list is empty afterwards
	listRec := env.do(httptest.NewRequest(http.MethodGet, "/api/applications", nil))
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Equal(t, "[]\n", listRec.Body.String())
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
