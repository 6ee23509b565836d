package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"alfredoptarigan/assignment-grader/internal/models"
	"alfredoptarigan/assignment-grader/internal/repositories"
	"alfredoptarigan/assignment-grader/internal/services"
)

type memoryBatchRepo struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*models.BatchJob
	files map[uuid.UUID][]models.BatchFile
}

func newMemoryBatchRepo() *memoryBatchRepo {
	return &memoryBatchRepo{
		jobs:  make(map[uuid.UUID]*models.BatchJob),
		files: make(map[uuid.UUID][]models.BatchFile),
	}
}

func (m *memoryBatchRepo) Create(job *models.BatchJob, files []models.BatchFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	m.files[job.ID] = files
	return nil
}

func (m *memoryBatchRepo) FindByID(id uuid.UUID) (*models.BatchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repositories.ErrBatchNotFound
	}
	return job, nil
}

func (m *memoryBatchRepo) FindFiles(batchID uuid.UUID) ([]models.BatchFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[batchID], nil
}

func (m *memoryBatchRepo) UpdateStatus(id uuid.UUID, status models.BatchStatus) error {
	return nil
}

func (m *memoryBatchRepo) UpdateProgress(id uuid.UUID, processed, total int) error {
	return nil
}

func (m *memoryBatchRepo) UpdateResult(id uuid.UUID, result *repositories.BatchResultData) error {
	return nil
}

func (m *memoryBatchRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	return nil
}

func (m *memoryBatchRepo) FindPendingJobs(limit int, queuedBefore time.Time) ([]models.BatchJob, error) {
	return nil, nil
}

type recordingWorker struct {
	jobs []services.Job
}

func (w *recordingWorker) Start(ctx context.Context) {}
func (w *recordingWorker) Stop()                    {}
func (w *recordingWorker) EnqueueJob(job services.Job) {
	w.jobs = append(w.jobs, job)
}

type upload struct {
	name string
	data string
}

func multipartRequest(target string, uploads ...upload) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := w.CreateFormFile("files", u.name)
		if err != nil {
			panic(err)
		}
		if _, err := io.WriteString(part, u.data); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestApp(repo *memoryBatchRepo, worker *recordingWorker, defaultKey string, dir string) *fiber.App {
	storage := services.NewStorageService(filepath.Join(dir, "uploads"), filepath.Join(dir, "reports"))
	if err := storage.EnsureDirs(); err != nil {
		panic(err)
	}

	upload := NewUploadHandler(repo, storage, worker, 1024, defaultKey, zerolog.Nop())
	result := NewResultHandler(repo)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/batches", upload.HandleCreateBatch)
	api.Get("/batches/:id", result.HandleGetBatch)
	api.Get("/batches/:id/report", result.HandleDownloadReport)
	return app
}

func TestHandleCreateBatch(t *testing.T) {
	Convey("Given no credential anywhere", t, func() {
		repo, worker := newMemoryBatchRepo(), &recordingWorker{}
		app := newTestApp(repo, worker, "", t.TempDir())

		resp, err := app.Test(multipartRequest("/api/v1/batches", upload{"a.docx", "x"}))

		Convey("Then the request is refused before anything is stored", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusPreconditionFailed)
			So(repo.jobs, ShouldBeEmpty)
			So(worker.jobs, ShouldBeEmpty)
		})
	})

	Convey("Given a credential in the header", t, func() {
		repo, worker := newMemoryBatchRepo(), &recordingWorker{}
		app := newTestApp(repo, worker, "", t.TempDir())

		req := multipartRequest("/api/v1/batches", upload{"a.docx", "one"}, upload{"bundle.ZIP", "two"})
		req.Header.Set(APIKeyHeader, "caller-key")
		resp, err := app.Test(req)

		Convey("Then the batch is queued with that key", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusAccepted)

			var body models.CreateBatchResponse
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Status, ShouldEqual, "queued")
			So(body.FilesCount, ShouldEqual, 2)

			id := uuid.MustParse(body.ID)
			So(repo.files[id], ShouldHaveLength, 2)
			So(repo.files[id][0].OriginalFileName, ShouldEqual, "a.docx")
			So(repo.files[id][1].Position, ShouldEqual, 1)
			So(worker.jobs, ShouldResemble, []services.Job{{BatchID: id, APIKey: "caller-key"}})

			_, statErr := os.Stat(repo.files[id][0].FilePath)
			So(statErr, ShouldBeNil)
		})
	})

	Convey("Given a configured default key", t, func() {
		repo, worker := newMemoryBatchRepo(), &recordingWorker{}
		app := newTestApp(repo, worker, "server-key", t.TempDir())

		resp, err := app.Test(multipartRequest("/api/v1/batches", upload{"a.pdf", "x"}))

		Convey("Then it is used", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusAccepted)
			So(worker.jobs, ShouldHaveLength, 1)
			So(worker.jobs[0].APIKey, ShouldEqual, "server-key")
		})
	})

	Convey("Given an unsupported file", t, func() {
		repo, worker := newMemoryBatchRepo(), &recordingWorker{}
		app := newTestApp(repo, worker, "key", t.TempDir())

		resp, err := app.Test(multipartRequest("/api/v1/batches", upload{"a.docx", "x"}, upload{"notes.txt", "y"}))

		Convey("Then the whole upload is rejected", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusBadRequest)
			So(repo.jobs, ShouldBeEmpty)
		})
	})

	Convey("Given a file over the size limit", t, func() {
		repo, worker := newMemoryBatchRepo(), &recordingWorker{}
		app := newTestApp(repo, worker, "key", t.TempDir())

		resp, err := app.Test(multipartRequest("/api/v1/batches", upload{"big.pdf", string(make([]byte, 2048))}))

		Convey("Then it is rejected", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusBadRequest)
		})
	})

	Convey("Given no files", t, func() {
		app := newTestApp(newMemoryBatchRepo(), &recordingWorker{}, "key", t.TempDir())

		resp, err := app.Test(multipartRequest("/api/v1/batches"))

		Convey("Then the request is rejected", func() {
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusBadRequest)
		})
	})
}

func TestResultHandler(t *testing.T) {
	Convey("Given stored batches", t, func() {
		dir := t.TempDir()
		repo := newMemoryBatchRepo()
		app := newTestApp(repo, &recordingWorker{}, "key", dir)

		mean, maxGrade, minGrade := 72.5, 95, 50
		completedID := uuid.New()
		reportPath := filepath.Join(dir, completedID.String()+"_assignment_report_20240305_1407.xlsx")
		So(os.WriteFile(reportPath, []byte("xlsx"), 0644), ShouldBeNil)
		So(repo.Create(&models.BatchJob{
			ID:          completedID,
			Status:      models.StatusCompleted,
			Total:       4,
			Processed:   4,
			Dropped:     1,
			Warnings:    []string{"could not read file x.pdf"},
			RecordCount: 3,
			MeanGrade:   &mean,
			MaxGrade:    &maxGrade,
			MinGrade:    &minGrade,
			ReportPath:  &reportPath,
		}, nil), ShouldBeNil)

		queuedID := uuid.New()
		So(repo.Create(&models.BatchJob{ID: queuedID, Status: models.StatusQueued}, nil), ShouldBeNil)

		Convey("Then a completed batch reports its statistics", func() {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+completedID.String(), nil))
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusOK)

			var body models.BatchStatusResponse
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Status, ShouldEqual, "completed")
			So(body.Progress, ShouldResemble, models.Progress{Processed: 4, Total: 4})
			So(body.Dropped, ShouldEqual, 1)
			So(body.Warnings, ShouldHaveLength, 1)
			So(body.Statistics, ShouldResemble, &models.Statistics{Count: 3, Mean: 72.5, Max: 95, Min: 50})
			So(body.ReportURL, ShouldEqual, "/api/v1/batches/"+completedID.String()+"/report")
		})

		Convey("Then the report downloads under its report name", func() {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+completedID.String()+"/report", nil))
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusOK)
			So(resp.Header.Get("Content-Disposition"), ShouldContainSubstring, "assignment_report_20240305_1407.xlsx")
			So(resp.Header.Get("Content-Disposition"), ShouldNotContainSubstring, completedID.String())
		})

		Convey("Then a queued batch has no statistics and no report yet", func() {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+queuedID.String(), nil))
			So(err, ShouldBeNil)
			var body models.BatchStatusResponse
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Statistics, ShouldBeNil)

			report, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+queuedID.String()+"/report", nil))
			So(err, ShouldBeNil)
			So(report.StatusCode, ShouldEqual, fiber.StatusConflict)
		})

		Convey("Then unknown and malformed ids are told apart", func() {
			missing, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+uuid.New().String(), nil))
			So(err, ShouldBeNil)
			So(missing.StatusCode, ShouldEqual, fiber.StatusNotFound)

			bad, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/batches/not-a-uuid", nil))
			So(err, ShouldBeNil)
			So(bad.StatusCode, ShouldEqual, fiber.StatusBadRequest)
		})
	})
}
