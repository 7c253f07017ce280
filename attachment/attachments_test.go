package attachment_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"appbase/attachment"
	"appbase/bizerror"
	"appbase/client/s3"
	"appbase/persistence"
	"appbase/testinfra"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("appbase")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&attachment.Attachment{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestUploadAttachment(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should store the object before the metadata row", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		stored := map[string]string{}
		s3.PutObjectFunc = func(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
			body, err := ioutil.ReadAll(r)
			if err != nil {
				return err
			}
			stored[key] = string(body)
			return nil
		}

		record, err := attachment.UploadAttachment(context.Background(), "report.pdf", "application/pdf",
			11, strings.NewReader("pdf content"), testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(record.Name).To(Equal("report.pdf"))
		Expect(record.ContentType).To(Equal("application/pdf"))
		Expect(record.Size).To(Equal(int64(11)))
		Expect(stored["attachments/"+record.ID.String()]).To(Equal("pdf content"))

		row := attachment.Attachment{}
		Expect(persistence.ActiveDataSourceManager.GormDB().
			Where("id = ?", record.ID).First(&row).Error).To(BeNil())
		Expect(row.CreatorID.String()).To(Equal("10"))
	})

	t.Run("should not create a row when the object store fails", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s3.PutObjectFunc = func(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
			return errors.New("error on put object")
		}

		_, err := attachment.UploadAttachment(context.Background(), "report.pdf", "application/pdf",
			11, strings.NewReader("pdf content"), testinfra.BuildSecCtx(10))
		Expect(err).To(Equal(errors.New("error on put object")))

		var count int
		Expect(persistence.ActiveDataSourceManager.GormDB().
			Model(&attachment.Attachment{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})

	t.Run("anonymous requests are rejected", func(t *testing.T) {
		_, err := attachment.UploadAttachment(context.Background(), "report.pdf", "application/pdf",
			11, strings.NewReader("pdf content"), nil)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})
}

func TestDownloadAttachment(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return the metadata row with the object body", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s3.PutObjectFunc = func(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
			return nil
		}
		record, err := attachment.UploadAttachment(context.Background(), "report.pdf", "application/pdf",
			11, strings.NewReader("pdf content"), testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())

		s3.GetObjectFunc = func(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error) {
			Expect(key).To(Equal("attachments/" + record.ID.String()))
			return ioutil.NopCloser(bytes.NewReader([]byte("pdf content"))), nil
		}

		row, body, err := attachment.DownloadAttachment(context.Background(), record.ID, testinfra.BuildSecCtx(20))
		Expect(err).To(BeNil())
		Expect(row.Name).To(Equal("report.pdf"))
		Expect(string(body)).To(Equal("pdf content"))
	})

	t.Run("missing object maps to not found", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s3.PutObjectFunc = func(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
			return nil
		}
		record, err := attachment.UploadAttachment(context.Background(), "report.pdf", "application/pdf",
			11, strings.NewReader("pdf content"), testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())

		s3.GetObjectFunc = func(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error) {
			return nil, oss.ServiceError{Code: "NoSuchKey"}
		}
		_, _, err = attachment.DownloadAttachment(context.Background(), record.ID, testinfra.BuildSecCtx(20))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("missing row maps to record not found", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, _, err := attachment.DownloadAttachment(context.Background(), 404, testinfra.BuildSecCtx(20))
		Expect(err).NotTo(BeNil())
	})

	t.Run("anonymous requests are rejected", func(t *testing.T) {
		_, _, err := attachment.DownloadAttachment(context.Background(), 1, nil)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})
}
