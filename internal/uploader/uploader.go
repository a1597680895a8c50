package uploader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/headline-goat/oconv/internal/adwords"
	"github.com/headline-goat/oconv/internal/store"
)

const (
	ViewthroughLookbackWindow = 30
	CtcLookbackWindow         = 90
)

// Description is printed before a run.
const Description = "This code example imports offline conversion values for specific clicks to " +
	"your account. To get Google Click ID for a click, run CLICK_PERFORMANCE_REPORT."

type ConversionTrackerMutator interface {
	Mutate(ctx context.Context, ops []adwords.ConversionTrackerOperation) (*adwords.ConversionTrackerReturnValue, error)
}

type OfflineConversionFeedMutator interface {
	Mutate(ctx context.Context, ops []adwords.OfflineConversionFeedOperation) (*adwords.OfflineConversionFeedReturnValue, error)
}

// Journal keeps a local record of what was sent. *store.SQLiteStore implements it.
type Journal interface {
	RecordDefinition(ctx context.Context, d *store.Definition) error
	RecordUpload(ctx context.Context, u *store.Upload) error
}

// Conversion is one offline conversion to attribute to a click.
type Conversion struct {
	ConversionName string
	GoogleClickID  string
	ConversionTime string
	Value          float64
}

type Uploader struct {
	trackers ConversionTrackerMutator
	feeds    OfflineConversionFeedMutator
	journal  Journal
	log      *slog.Logger
	runID    string
}

type Option func(*Uploader)

func WithJournal(j Journal) Option {
	return func(u *Uploader) { u.journal = j }
}

func WithLogger(l *slog.Logger) Option {
	return func(u *Uploader) { u.log = l }
}

func New(trackers ConversionTrackerMutator, feeds OfflineConversionFeedMutator, opts ...Option) *Uploader {
	u := &Uploader{
		trackers: trackers,
		feeds:    feeds,
		log:      slog.Default(),
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RunID identifies every journal row written by this uploader.
func (u *Uploader) RunID() string {
	return u.runID
}

// DefineUploadConversion creates an upload conversion named name and returns
// it as echoed by the service, id included.
func (u *Uploader) DefineUploadConversion(ctx context.Context, name string) (*adwords.UploadConversion, error) {
	op := adwords.ConversionTrackerOperation{
		Operator: adwords.OperatorAdd,
		Operand: adwords.NewUploadConversion(name, adwords.CategoryPageView,
			ViewthroughLookbackWindow, CtcLookbackWindow),
	}

	rval, err := u.trackers.Mutate(ctx, []adwords.ConversionTrackerOperation{op})
	if err != nil {
		return nil, &Error{Op: "define", Err: err}
	}
	if rval == nil || len(rval.Value) == 0 {
		return nil, &Error{Op: "define", Err: adwords.ErrEmptyResult}
	}

	created := rval.Value[0]
	u.log.Info("upload conversion created", slog.String("name", created.Name), slog.Int64("id", created.ID))

	u.record(func(j Journal) error {
		return j.RecordDefinition(ctx, &store.Definition{
			RunID:                     u.runID,
			RemoteID:                  created.ID,
			Name:                      created.Name,
			Category:                  string(created.Category),
			ViewthroughLookbackWindow: created.ViewthroughLookbackWindow,
			CtcLookbackWindow:         created.CtcLookbackWindow,
		})
	})

	return &created, nil
}

// UploadOfflineConversion attributes one conversion to googleClickID. Time and
// value are passed through untouched; the service validates them.
func (u *Uploader) UploadOfflineConversion(ctx context.Context, conversionName, googleClickID, conversionTime string, value float64) (*adwords.OfflineConversionFeed, error) {
	feeds, err := u.UploadOfflineConversions(ctx, []Conversion{{
		ConversionName: conversionName,
		GoogleClickID:  googleClickID,
		ConversionTime: conversionTime,
		Value:          value,
	}})
	if err != nil {
		return nil, err
	}
	return &feeds[0], nil
}

// UploadOfflineConversions sends all conversions in one mutate call. Either
// every conversion is accepted or none is.
func (u *Uploader) UploadOfflineConversions(ctx context.Context, conversions []Conversion) ([]adwords.OfflineConversionFeed, error) {
	if len(conversions) == 0 {
		return nil, &Error{Op: "upload", Err: fmt.Errorf("no conversions to upload")}
	}

	ops := make([]adwords.OfflineConversionFeedOperation, len(conversions))
	for i, c := range conversions {
		ops[i] = adwords.OfflineConversionFeedOperation{
			Operator: adwords.OperatorAdd,
			Operand: adwords.OfflineConversionFeed{
				ConversionName:  c.ConversionName,
				ConversionTime:  c.ConversionTime,
				ConversionValue: c.Value,
				GoogleClickID:   c.GoogleClickID,
			},
		}
	}

	rval, err := u.feeds.Mutate(ctx, ops)
	if err == nil && (rval == nil || len(rval.Value) != len(ops)) {
		err = adwords.ErrEmptyResult
	}
	if err != nil {
		for _, op := range ops {
			u.recordUpload(ctx, op.Operand, store.UploadFailed, err)
		}
		return nil, &Error{Op: "upload", Err: err}
	}

	for _, feed := range rval.Value {
		u.log.Info("offline conversion uploaded",
			slog.String("conversion", feed.ConversionName),
			slog.String("gclid", feed.GoogleClickID),
			slog.Float64("value", feed.ConversionValue))
		u.recordUpload(ctx, feed, store.UploadUploaded, nil)
	}
	return rval.Value, nil
}

// Request is the input of a full run.
type Request struct {
	ConversionName string
	GoogleClickID  string
	ConversionTime string
	Value          float64
}

// Result carries whatever the run produced, even when it failed half way.
type Result struct {
	Definition *adwords.UploadConversion
	Feed       *adwords.OfflineConversionFeed
}

// Run creates the upload conversion and then uploads one conversion to it.
// Nothing is uploaded if the definition fails. A definition created before a
// failed upload is left in place.
func (u *Uploader) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}

	def, err := u.DefineUploadConversion(ctx, req.ConversionName)
	if err != nil {
		return res, err
	}
	res.Definition = def

	feed, err := u.UploadOfflineConversion(ctx, req.ConversionName, req.GoogleClickID, req.ConversionTime, req.Value)
	if err != nil {
		return res, err
	}
	res.Feed = feed
	return res, nil
}

func (u *Uploader) recordUpload(ctx context.Context, feed adwords.OfflineConversionFeed, status store.UploadStatus, cause error) {
	u.record(func(j Journal) error {
		up := &store.Upload{
			RunID:           u.runID,
			ConversionName:  feed.ConversionName,
			GoogleClickID:   feed.GoogleClickID,
			ConversionTime:  feed.ConversionTime,
			ConversionValue: feed.ConversionValue,
			Status:          status,
		}
		if cause != nil {
			up.Error = cause.Error()
		}
		return j.RecordUpload(ctx, up)
	})
}

// record writes to the journal if there is one. Journal failures are only logged.
func (u *Uploader) record(fn func(Journal) error) {
	if u.journal == nil {
		return
	}
	if err := fn(u.journal); err != nil {
		u.log.Warn("failed to write journal", slog.String("run_id", u.runID), slog.String("err", err.Error()))
	}
}
