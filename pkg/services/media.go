package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"blog-cms/pkg/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
)

// Image is an uploaded feature image held in memory.
type Image struct {
	Name        string // sanitized base name without extension
	ContentType string
	Data        []byte
}

// ImageHost stores an image and returns its public URL.
type ImageHost interface {
	Upload(ctx context.Context, img *Image) (string, error)
}

// ReadImage reads an uploaded file, enforcing maxBytes and an image/* content type
// sniffed from the data rather than taken from the request.
func ReadImage(header *multipart.FileHeader, maxBytes int64) (*Image, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("unsupported content type %s", mtype.String())
	}

	return &Image{
		Name:        imageName(header.Filename),
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

func imageName(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image"
	}
	return fmt.Sprintf("%s_%d", name, time.Now().Unix())
}

// FeatureImages uploads article feature images through an ImageHost.
type FeatureImages struct {
	host     ImageHost
	maxBytes int64
	timeout  time.Duration
	logger   *slog.Logger
}

// NewFeatureImages returns an uploader; a nil host makes every upload fail with ErrUploadDisabled.
func NewFeatureImages(host ImageHost, maxBytes int64, timeout time.Duration, logger *slog.Logger) *FeatureImages {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureImages{
		host:     host,
		maxBytes: maxBytes,
		timeout:  timeout,
		logger:   logger.With("component", "feature_images"),
	}
}

// UploadFeatureImage validates and uploads a form file and returns its URL.
// Failures are returned as *UploadError.
func (f *FeatureImages) UploadFeatureImage(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if f.host == nil {
		return "", &UploadError{Reason: "disabled", Err: ErrUploadDisabled}
	}

	img, err := ReadImage(header, f.maxBytes)
	if err != nil {
		return "", &UploadError{Reason: "invalid", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url, err := f.host.Upload(ctx, img)
	if err != nil {
		return "", &UploadError{Reason: "host", Err: err}
	}
	f.logger.InfoContext(ctx, "Feature image uploaded", "name", img.Name, "type", img.ContentType, "size", len(img.Data), "url", url)
	return url, nil
}

// CloudinaryHost is an ImageHost backed by Cloudinary.
type CloudinaryHost struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryHost(cfg config.CloudinaryConfig) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryHost{cld: cld, folder: cfg.Folder}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, img *Image) (string, error) {
	resp, err := h.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		PublicID: img.Name,
		Folder:   h.folder,
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	if resp.SecureURL != "" {
		return resp.SecureURL, nil
	}
	return resp.URL, nil
}
