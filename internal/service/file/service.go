package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/storage"
)

const (
	// MaxProofSize is the largest selfie accepted before compression
	MaxProofSize = 10 << 20

	maxProofEdge = 1280
	proofQuality = 80
)

var allowedProofExts = []string{".jpg", ".jpeg", ".png"}

// Proof is a stored attendance selfie
type Proof struct {
	Path string
	URL  string
}

type FileService interface {
	// UploadAttendanceProof compresses a selfie, stores it and returns its storage path and public URL
	UploadAttendanceProof(ctx context.Context, key attendance.EmployeeKey, date string, action attendance.Action, file io.Reader, filename string) (Proof, error)
	DeleteAttendanceProof(ctx context.Context, path string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadAttendanceProof implements FileService.
func (s *fileServiceImpl) UploadAttendanceProof(ctx context.Context, key attendance.EmployeeKey, date string, action attendance.Action, file io.Reader, filename string) (Proof, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedExt(ext) {
		return Proof{}, fmt.Errorf("invalid file type: only jpg, jpeg, png allowed")
	}

	buffer, err := io.ReadAll(io.LimitReader(file, MaxProofSize+1))
	if err != nil {
		return Proof{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(buffer) > MaxProofSize {
		return Proof{}, fmt.Errorf("attendance proof photo size must not exceed 10MB")
	}

	compressed, err := compressImage(buffer)
	if err != nil {
		return Proof{}, fmt.Errorf("failed to compress image: %w", err)
	}

	key = key.Normalize()
	path := filepath.ToSlash(filepath.Join(
		"attendance",
		date,
		safeSegment(key.Email),
		fmt.Sprintf("%s-%s.jpg", action, uuid.New().String()),
	))

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(compressed), path, "image/jpeg")
	if err != nil {
		return Proof{}, fmt.Errorf("failed to upload attendance proof: %w", err)
	}

	url, err := s.storage.GetURL(ctx, uploadedPath)
	if err != nil {
		if delErr := s.storage.Delete(ctx, uploadedPath); delErr != nil {
			slog.Warn("Failed to remove unresolvable attendance proof", "path", uploadedPath, "error", delErr)
		}
		return Proof{}, fmt.Errorf("failed to resolve attendance proof URL: %w", err)
	}

	return Proof{Path: uploadedPath, URL: url}, nil
}

// DeleteAttendanceProof implements FileService.
func (s *fileServiceImpl) DeleteAttendanceProof(ctx context.Context, path string) error {
	if err := s.storage.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete attendance proof: %w", err)
	}
	return nil
}

// compressImage fits the image inside maxProofEdge on both sides, applies the
// EXIF orientation and re-encodes it as JPEG
func compressImage(buffer []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(buffer), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxProofEdge || bounds.Dy() > maxProofEdge {
		img = imaging.Fit(img, maxProofEdge, maxProofEdge, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(proofQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), nil
}

func isAllowedExt(ext string) bool {
	for _, allowed := range allowedProofExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9.\-_@]+`)

func safeSegment(s string) string {
	return unsafeSegment.ReplaceAllString(s, "_")
}
