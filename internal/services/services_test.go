package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
	"github.com/yukikurage/issue-tracker-api/internal/testutil"
	"gorm.io/gorm"
)

// pngBytes is the smallest prefix mimetype recognises as image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	db          *gorm.DB
	blobs       *storage.LocalBlobStore
	metrics     *metrics.Metrics
	issues      *IssueService
	comments    *CommentService
	attachments *AttachmentService
	users       *UserService
	products    *ProductService
	lookups     *LookupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	log := testutil.Logger()

	commentRepo := repository.NewCommentRepository(db)
	return &fixture{
		db:          db,
		blobs:       blobs,
		metrics:     m,
		issues:      NewIssueService(repository.NewIssueRepository(db), blobs, m, log),
		comments:    NewCommentService(commentRepo, blobs, m, log),
		attachments: NewAttachmentService(commentRepo, repository.NewDocumentRepository(db), blobs, m, log),
		users:       NewUserService(repository.NewUserRepository(db), m),
		products:    NewProductService(repository.NewProductRepository(db), m),
		lookups:     NewLookupService(repository.NewLookupRepository(db), m),
	}
}

type upload struct {
	name        string
	contentType string
	body        []byte
}

// fileHeaders round-trips files through a real multipart body so the
// headers carry sizes and backing storage as the handler would see them.
func fileHeaders(t *testing.T, files ...upload) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["files"]
}
