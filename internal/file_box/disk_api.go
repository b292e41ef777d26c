package file_box

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PublicPathPrefix is the URL prefix under which saved files are served.
const PublicPathPrefix = "/uploads/"

// in-flight writes live here, so they can never be served
const tmpDirName = ".tmp"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrFileNotAllowed = errors.New("file empty or extension not allowed")
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// DiskApi stores uploaded images flat in a single directory, named by their
// sanitized original filename. Same sanitized names overwrite each other.
type DiskApi struct {
	rootPath string
}

func NewDiskApi(rootPath string) (*DiskApi, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	if err := pkg.EnsureDir(rootPath); err != nil {
		return nil, fmt.Errorf("create root dir: %w", err)
	}
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}
	if err := pkg.EnsureDir(filepath.Join(absPath, tmpDirName)); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	return &DiskApi{
		rootPath: absPath,
	}, nil
}

func (da *DiskApi) RootPath() string {
	return da.rootPath
}

// SanitizeFilename replaces every character outside [A-Za-z0-9_.-] with '_'.
// This is the only thing standing between a client filename and the filesystem.
func SanitizeFilename(filename string) string {
	var sb strings.Builder
	sb.Grow(len(filename))
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// AllowedFile reports whether the filename has one of the allowed image extensions (case-insensitive).
func AllowedFile(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[idx+1:])]
}

type SaveFileParams struct {
	Filename string
	Size     int64
	File     io.Reader
}

// Save writes the file under its sanitized name and returns the public path
// (/uploads/<name>). Returns ErrFileNotAllowed for empty or non-image uploads.
func (da *DiskApi) Save(ctx context.Context, params SaveFileParams) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskApi.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	span.SetAttributes(attribute.String("file.name", params.Filename))
	span.SetAttributes(attribute.Int64("file.size", params.Size))

	if params.File == nil || params.Filename == "" || params.Size == 0 || !AllowedFile(params.Filename) {
		return "", ErrFileNotAllowed
	}

	filename := SanitizeFilename(params.Filename)
	filePath := filepath.Join(da.rootPath, filename)
	log.Debugf("disk api: saving file [%s] as [%s]", params.Filename, filePath)

	tmpFile, err := os.CreateTemp(filepath.Join(da.rootPath, tmpDirName), "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, params.File); err != nil {
		_ = tmpFile.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	renamed = true

	return PublicPathPrefix + filename, nil
}

// Open returns the stored file for the given filename. The caller closes it.
func (da *DiskApi) Open(ctx context.Context, filename string) (*os.File, os.FileInfo, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskApi.open")
	defer span.End()

	filePath, ok := da.resolve(filename)
	if !ok {
		return nil, nil, ErrFileNotFound
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if stat.IsDir() {
		_ = file.Close()
		return nil, nil, ErrFileNotFound
	}

	return file, stat, nil
}

// Delete removes the file behind a public path. A missing file is not an error.
func (da *DiskApi) Delete(ctx context.Context, publicPath string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskApi.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filePath, ok := da.resolve(strings.TrimPrefix(publicPath, PublicPathPrefix))
	if !ok {
		log.Warnf("disk api: refusing to delete [%s]", publicPath)
		return nil
	}

	log.Debugf("disk api: deleting file [%s]", filePath)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// resolve maps a filename to its path in the root folder. Only names that
// survive sanitization unchanged are addressable.
func (da *DiskApi) resolve(filename string) (string, bool) {
	if filename == "" || filename == "." || filename == ".." {
		return "", false
	}
	if SanitizeFilename(filename) != filename {
		return "", false
	}
	return filepath.Join(da.rootPath, filename), true
}
