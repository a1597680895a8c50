package store

import "time"

type UploadStatus string

const (
	UploadUploaded UploadStatus = "uploaded"
	UploadFailed   UploadStatus = "failed"
)

// Definition is an upload conversion created remotely.
type Definition struct {
	ID                        int64
	RunID                     string
	RemoteID                  int64 // id assigned by the conversion tracker service
	Name                      string
	Category                  string
	ViewthroughLookbackWindow int
	CtcLookbackWindow         int
	CreatedAt                 time.Time
}

// Upload is one offline conversion sent to the feed service.
type Upload struct {
	ID              int64
	RunID           string
	ConversionName  string
	GoogleClickID   string
	ConversionTime  string // as sent, "yyyymmdd hhmmss"
	ConversionValue float64
	Status          UploadStatus
	Error           string // set when Status is "failed"
	CreatedAt       time.Time
}

type UploadStats struct {
	ConversionName string
	Uploaded       int
	Failed         int
	TotalValue     float64 // sum over uploaded rows only
}
