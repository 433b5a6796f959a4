package models

import "io"

// ObjectLocation addresses an object in S3 compatible storage.
type ObjectLocation struct {
	Bucket string
	Key    string
}

type UploadInput struct {
	File     io.Reader
	Location ObjectLocation
	Size     int64
	MimeType string
}
