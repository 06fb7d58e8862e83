package handler

import (
	"net/http"
	"strings"

	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/filestore"
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// saveUpload stores the "file" part of a multipart request and returns its
// digest, original name and size. All nil when no file part was sent.
func saveUpload(r *http.Request, store *filestore.Store) (*string, *string, *int64, error) {
	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return nil, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, errors.BadRequest("invalid file upload")
	}
	defer file.Close()

	digest, size, err := store.Save(file)
	if err != nil {
		return nil, nil, nil, err
	}

	name := header.Filename
	return &digest, &name, &size, nil
}
