package attachment

import (
	"context"
	"io"
	"io/ioutil"

	"appbase/bizerror"
	"appbase/client/s3"
	"appbase/common"
	"appbase/persistence"
	"appbase/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	attachmentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	UploadAttachmentFunc   = UploadAttachment
	DownloadAttachmentFunc = DownloadAttachment
)

type Attachment struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func objectKey(id types.ID) string {
	return "attachments/" + id.String()
}

func UploadAttachment(ctx context.Context, name, contentType string, size int64, r io.Reader,
	sec *session.Context) (*Attachment, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	record := Attachment{ID: common.NextId(attachmentIdWorker), Name: name, Size: size,
		ContentType: contentType, CreatorID: sec.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := s3.PutObjectFunc(ctx, objectKey(record.ID), r); err != nil {
		return nil, err
	}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func DownloadAttachment(ctx context.Context, id types.ID, sec *session.Context) (*Attachment, []byte, error) {
	if sec == nil {
		return nil, nil, bizerror.ErrUnauthenticated
	}

	record := Attachment{}
	if err := persistence.ActiveDataSourceManager.GormDB().Where(&Attachment{ID: id}).First(&record).Error; err != nil {
		return nil, nil, err
	}

	r, err := s3.GetObjectFunc(ctx, objectKey(id))
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	defer r.Close()
	body, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return &record, body, nil
}
