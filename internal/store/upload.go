package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/do"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes uploads under Dir. Used when no bucket is configured.
type FileUploader struct {
	Dir string
}

func NewFileUploader(i *do.Injector) (Uploader, error) {
	return &FileUploader{Dir: do.MustInvokeNamed[string](i, "output_dir")}, nil
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	path := filepath.Join(u.Dir, params.Name)
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "file", path, "content-type", params.ContentType)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, params.Data, 0o600)
}
