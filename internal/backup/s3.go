// Package backup implements the document backup uploader of spec §4.10,
// grounded on the teacher's storage.S3Client stub, filled in with a real
// PutObject call against the same aws-sdk-go session/s3 packages.
package backup

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Uploader pushes persistence documents to S3 after each successful
// save. Failures are logged; the local document remains the source of
// truth (spec §4.10, §7).
type Uploader struct {
	client *s3.S3
	bucket string
}

// NewUploader builds an Uploader for bucket in region.
func NewUploader(region, bucket string) (*Uploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &Uploader{client: s3.New(sess), bucket: bucket}, nil
}

// Upload stores doc under canvas-backups/<unix-ts>.json. Intended to be
// run in its own goroutine by the caller; it does not block the save
// loop (spec §4.10).
func (u *Uploader) Upload(doc []byte) {
	if u == nil || u.client == nil {
		return
	}
	key := fmt.Sprintf("canvas-backups/%d.json", time.Now().Unix())
	_, err := u.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(doc),
	})
	if err != nil {
		log.Printf("backup: upload to s3://%s/%s failed: %v", u.bucket, key, err)
	}
}
