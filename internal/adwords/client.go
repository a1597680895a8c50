package adwords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/globusdigital/soap"
)

const (
	ConversionTrackerServiceName     = "ConversionTrackerService"
	OfflineConversionFeedServiceName = "OfflineConversionFeedService"
)

// Session holds what every service client needs to reach the API. It stands
// in for the user/session object of the client libraries: authentication is
// left to whatever sits in front of Endpoint.
type Session struct {
	Endpoint string
	Version  string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// ServiceURL returns the address of the named service for this session.
func (s Session) ServiceURL(service string) string {
	return strings.TrimRight(s.Endpoint, "/") + "/api/adwords/cm/" + s.version() + "/" + service
}

func (s Session) version() string {
	if s.Version == "" {
		return DefaultVersion
	}
	return s.Version
}

func (s Session) newClient(service string) *soap.Client {
	client := soap.NewClient(s.ServiceURL(service), nil)
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", service))
	client.Log = func(msg string, args ...interface{}) {
		logger.Debug(msg, args...)
	}
	return client
}

// call runs one mutate round trip, bounding it by the session timeout.
func (s Session) call(ctx context.Context, client *soap.Client, service string, request, response interface{}) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	httpResponse, err := client.Call(ctx, "", request, response)
	if err != nil {
		return fmt.Errorf("%s.mutate: %w", service, err)
	}
	if httpResponse != nil && httpResponse.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s.mutate: unexpected status %d", service, httpResponse.StatusCode)
	}
	return nil
}

// ErrEmptyResult is returned when a mutate call succeeds but echoes nothing back.
var ErrEmptyResult = errors.New("service returned no values")

// ConversionTrackerService manages conversion trackers.
type ConversionTrackerService struct {
	session Session
	client  *soap.Client
}

func (s Session) ConversionTrackerService() *ConversionTrackerService {
	return &ConversionTrackerService{session: s, client: s.newClient(ConversionTrackerServiceName)}
}

// Mutate applies ops in a single call. The call is all-or-nothing.
func (c *ConversionTrackerService) Mutate(ctx context.Context, ops []ConversionTrackerOperation) (*ConversionTrackerReturnValue, error) {
	req := &conversionTrackerMutate{
		XMLName:    MutateName(c.session.version()),
		Operations: ops,
	}
	resp := &conversionTrackerMutateResponse{}
	if err := c.session.call(ctx, c.client, ConversionTrackerServiceName, req, resp); err != nil {
		return nil, err
	}
	return &resp.Rval, nil
}

// OfflineConversionFeedService imports conversions for past clicks.
type OfflineConversionFeedService struct {
	session Session
	client  *soap.Client
}

func (s Session) OfflineConversionFeedService() *OfflineConversionFeedService {
	return &OfflineConversionFeedService{session: s, client: s.newClient(OfflineConversionFeedServiceName)}
}

// Mutate applies ops in a single call. The call is all-or-nothing.
func (c *OfflineConversionFeedService) Mutate(ctx context.Context, ops []OfflineConversionFeedOperation) (*OfflineConversionFeedReturnValue, error) {
	req := &offlineConversionFeedMutate{
		XMLName:    MutateName(c.session.version()),
		Operations: ops,
	}
	resp := &offlineConversionFeedMutateResponse{}
	if err := c.session.call(ctx, c.client, OfflineConversionFeedServiceName, req, resp); err != nil {
		return nil, err
	}
	return &resp.Rval, nil
}
