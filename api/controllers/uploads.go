package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retailgrid/backoffice/api/responses"
	"github.com/retailgrid/backoffice/internal/bulkupload"
	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"github.com/retailgrid/backoffice/pkg/logger"
)

// Upload ingests a TSV for the pipeline named in the path and answers with
// the per-row report. Partial failure is still a 200: the body tells the
// operator which rows landed and which did not.
func Upload(svc bulkupload.Service, limits config.UploadConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := enums.ParseUploadKind(chi.URLParam(r, "kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bad upload kind"))
			return
		}

		input, err := readUpload(r, limits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithUpload(r.Context(), input.Filename)
		var report *bulkupload.Report
		switch kind {
		case enums.UploadKindProducts:
			report, err = svc.ImportProducts(ctx, input)
		case enums.UploadKindInventory:
			report, err = svc.ImportInventory(ctx, input)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteTSV(w, report.Render())
	}
}

func readUpload(r *http.Request, limits config.UploadConfig) (bulkupload.Input, error) {
	// +1 so files right at the limit survive and oversized ones are caught
	// before the whole body is buffered.
	if err := r.ParseMultipartForm(limits.MaxBytes + 1); err != nil {
		return bulkupload.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bad multipart request")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return bulkupload.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing file part")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limits.MaxBytes+1))
	if err != nil {
		return bulkupload.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read upload")
	}
	if int64(len(content)) > limits.MaxBytes {
		return bulkupload.Input{}, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d bytes", limits.MaxBytes)
	}
	return bulkupload.Input{Filename: header.Filename, Content: content}, nil
}
