// Package blob stores uploaded media on the local static directory and
// hands back the URL path clients use to fetch it.
package blob

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"ripple_chat_server/pkg/constants"
	"ripple_chat_server/pkg/errorx"
	"ripple_chat_server/pkg/util/random"

	"go.uber.org/zap"
)

// LocalStore writes files under baseDir and serves them under urlPrefix.
type LocalStore struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(baseDir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeServerBusy, "create media dir %s", baseDir)
	}
	return &LocalStore{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save persists the uploaded file under a random collision-free name and
// returns its URL path.
func (s *LocalStore) Save(header *multipart.FileHeader) (string, error) {
	if header.Size > constants.FILE_MAX_SIZE*1024 {
		return "", errorx.Newf(errorx.CodeInvalidParam, "file exceeds %d KB", constants.FILE_MAX_SIZE)
	}
	src, err := header.Open()
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeInvalidParam, "open uploaded file")
	}
	defer src.Close()

	ext := filepath.Ext(header.Filename)
	name := fmt.Sprintf("%s%s", random.GetNowAndLenRandomString(10), ext)
	dstPath := filepath.Join(s.baseDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", errorx.Wrapf(err, errorx.CodeServerBusy, "create media file %s", dstPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		if rmErr := os.Remove(dstPath); rmErr != nil {
			zap.L().Error("remove partial upload failed", zap.String("path", dstPath), zap.Error(rmErr))
		}
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "write media file")
	}
	return s.urlPrefix + "/" + name, nil
}
