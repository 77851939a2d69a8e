package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/h2non/filetype"

	"github.com/okian/sect/internal/adapters/spool"
	"github.com/okian/sect/internal/domain/ingest"
)

// UploadDependencies defines the batch submission operations.
type UploadDependencies interface {
	SubmitBatch(ctx context.Context, files []ingest.File) (Job, error)
	Job(id string) (Job, error)
	Jobs() []Job
}

// UploadsHandler accepts image batches and reports job progress.
type UploadsHandler struct {
	deps     UploadDependencies
	spool    *spool.Dir
	maxBatch int
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(deps UploadDependencies, dir *spool.Dir, maxBatch int) *UploadsHandler {
	if maxBatch <= 0 {
		maxBatch = ingest.MaxBatchSize
	}
	return &UploadsHandler{deps: deps, spool: dir, maxBatch: maxBatch}
}

// uploadField is the multipart field carrying images.
const uploadField = "files"

// sniffLen is how many bytes filetype needs to recognise a format.
const sniffLen = 261

// HandleUpload handles POST /uploads. Parts that are not images stay in the
// batch as rejected files so the job counts them as failed.
func (h *UploadsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.spool == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", errors.New("uploads are disabled"))
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeFailure(w, errors.Join(ErrBadRequest, err))
		return
	}

	var files []ingest.File
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			spool.RemoveAll(files)
			writeFailure(w, errors.Join(ErrBadRequest, err))
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		f, err := h.spoolImage(part)
		_ = part.Close()
		if err != nil {
			spool.RemoveAll(files)
			writeFailure(w, err)
			return
		}
		files = append(files, f)
		if len(files) > h.maxBatch {
			spool.RemoveAll(files)
			writeFailure(w, fmt.Errorf("%w: at most %d files", ingest.ErrBatchTooLarge, h.maxBatch))
			return
		}
	}

	job, err := h.deps.SubmitBatch(r.Context(), files)
	if err != nil {
		spool.RemoveAll(files)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// spoolImage writes one part to disk. A part that is not an image is not
// stored and comes back as an ingest.Rejected file.
func (h *UploadsHandler) spoolImage(part *multipart.Part) (ingest.File, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrBadRequest, err)
	}
	head = head[:n]
	if !filetype.IsImage(head) {
		return ingest.Rejected{FileName: part.FileName(), Err: ingest.ErrNotImage}, nil
	}
	f, err := h.spool.Save(part.FileName(), io.MultiReader(bytes.NewReader(head), part))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// HandleListJobs handles GET /jobs.
func (h *UploadsHandler) HandleListJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Jobs())
}

// HandleGetJob handles GET /jobs/{id}.
func (h *UploadsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
