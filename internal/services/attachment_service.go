package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
)

var (
	ErrDocumentNotFound = apierrors.New(apierrors.KindNotFound, "document not found")
	ErrFileNotFound     = apierrors.New(apierrors.KindNotFound, "file not found")
	ErrNoFiles          = apierrors.New(apierrors.KindBadRequest, "no files uploaded")
	ErrTooManyFiles     = apierrors.New(apierrors.KindPayloadTooLarge, fmt.Sprintf("at most %d files per upload", constants.MaxUploadFiles))
	ErrFileTooLarge     = apierrors.New(apierrors.KindPayloadTooLarge, fmt.Sprintf("files must not exceed %d bytes", constants.MaxUploadFileSize))
	ErrUnsupportedFile  = apierrors.New(apierrors.KindUnsupportedMediaType, "only jpeg, png and gif images are accepted")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif"}

// AttachmentService handles document upload, download and deletion
type AttachmentService struct {
	commentRepo  repository.CommentRepository
	documentRepo repository.DocumentRepository
	blobs        storage.BlobStore
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	commentRepo repository.CommentRepository,
	documentRepo repository.DocumentRepository,
	blobs storage.BlobStore,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *AttachmentService {
	return &AttachmentService{
		commentRepo:  commentRepo,
		documentRepo: documentRepo,
		blobs:        blobs,
		metrics:      m,
		log:          log,
	}
}

// attachGuard admits only the comment's author on an open issue.
func (s *AttachmentService) attachGuard(p authz.Principal) repository.CommentGuard {
	return func(comment *models.Comment, issue *models.Issue) error {
		if err := authorize(s.metrics, p, authz.AttachmentCreate, &authz.Snapshot{OwnerID: comment.UserID}); err != nil {
			return err
		}
		return lifecycle.Guard(issue)
	}
}

// Create stores files and attaches them to a comment. Every file is
// validated before anything is written; stored files are removed again if
// the rows cannot be inserted.
func (s *AttachmentService) Create(ctx context.Context, p authz.Principal, commentID uint64, files []*multipart.FileHeader) ([]models.Document, error) {
	if err := coarse(s.metrics, p, authz.AttachmentCreate); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fail(err, ErrCommentNotFound, "find comment")
	}
	if err := s.attachGuard(p)(comment, &comment.Issue); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > constants.MaxUploadFiles {
		return nil, ErrTooManyFiles
	}
	types := make([]string, len(files))
	for i, fh := range files {
		mt, err := validateFile(fh)
		if err != nil {
			return nil, err
		}
		types[i] = mt
	}

	docs := make([]models.Document, 0, len(files))
	var stored []string
	for i, fh := range files {
		ref, err := s.store(ctx, fh, types[i])
		if err != nil {
			removeBlobs(ctx, s.blobs, s.metrics, s.log, stored)
			return nil, err
		}
		stored = append(stored, ref)
		docs = append(docs, models.Document{URL: ref, ContentType: types[i], Size: fh.Size})
	}

	if err := s.documentRepo.CreateBatch(ctx, commentID, docs, s.attachGuard(p)); err != nil {
		removeBlobs(ctx, s.blobs, s.metrics, s.log, stored)
		return nil, fail(err, ErrCommentNotFound, "create documents")
	}
	return docs, nil
}

// Open returns a document and a reader over its content. Viewing follows
// the parent issue's visibility.
func (s *AttachmentService) Open(ctx context.Context, p authz.Principal, id uint64) (*models.Document, io.ReadCloser, error) {
	if err := coarse(s.metrics, p, authz.AttachmentView); err != nil {
		return nil, nil, err
	}

	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fail(err, ErrDocumentNotFound, "find document")
	}
	if err := authorize(s.metrics, p, authz.AttachmentView, snapshotOf(&doc.Comment.Issue)); err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, doc.URL)
	s.metrics.ObserveBlob("open", err)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return doc, rc, nil
}

// Delete removes an attachment row, then its file. A closed issue locks its
// attachments whoever asks.
func (s *AttachmentService) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if err := coarse(s.metrics, p, authz.AttachmentDelete); err != nil {
		return err
	}

	doc, err := s.documentRepo.Delete(ctx, id, func(comment *models.Comment, issue *models.Issue) error {
		if err := lifecycle.Guard(issue); err != nil {
			return err
		}
		return authorize(s.metrics, p, authz.AttachmentDelete, &authz.Snapshot{OwnerID: comment.UserID})
	})
	if err != nil {
		return fail(err, ErrDocumentNotFound, "delete document")
	}

	err = s.blobs.Delete(ctx, doc.URL)
	s.metrics.ObserveBlob("delete", err)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *AttachmentService) store(ctx context.Context, fh *multipart.FileHeader, contentType string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	ref, err := s.blobs.Store(ctx, f, fh.Filename, contentType)
	s.metrics.ObserveBlob("store", err)
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return ref, nil
}

// validateFile checks size, extension, declared type and the sniffed content
// type, returning the sniffed type.
func validateFile(fh *multipart.FileHeader) (string, error) {
	if fh.Size > constants.MaxUploadFileSize {
		return "", ErrFileTooLarge
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return "", ErrUnsupportedFile
	}
	declared := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if declared != "image/jpg" && !mimetype.EqualsAny(declared, allowedTypes...) {
		return "", ErrUnsupportedFile
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return t, nil
		}
	}
	return "", ErrUnsupportedFile
}
