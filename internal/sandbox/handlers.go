package sandbox

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/headline-goat/oconv/internal/adwords"
)

type conversionTrackerMutate struct {
	Operations []adwords.ConversionTrackerOperation `xml:"operations"`
}

type conversionTrackerMutateResponse struct {
	XMLName xml.Name
	Rval    adwords.ConversionTrackerReturnValue `xml:"rval"`
}

type offlineConversionFeedMutate struct {
	Operations []adwords.OfflineConversionFeedOperation `xml:"operations"`
}

type offlineConversionFeedMutateResponse struct {
	XMLName xml.Name
	Rval    adwords.OfflineConversionFeedReturnValue `xml:"rval"`
}

func responseName(version string) xml.Name {
	return xml.Name{Space: adwords.Namespace + version, Local: "mutateResponse"}
}

func (s *Server) handleConversionTracker(w http.ResponseWriter, r *http.Request) {
	const service = adwords.ConversionTrackerServiceName

	req, err := decodeMutate[conversionTrackerMutate](r)
	if err != nil {
		s.clientFault(w, service, err)
		return
	}

	created, errs := s.addTrackers(req.Operations)
	if len(errs) > 0 {
		s.apiFault(w, service, errs)
		return
	}

	s.mutates.WithLabelValues(service, "ok").Inc()
	writeEnvelope(w, http.StatusOK, conversionTrackerMutateResponse{
		XMLName: responseName(chi.URLParam(r, "version")),
		Rval: adwords.ConversionTrackerReturnValue{
			ListReturnValueType: "ConversionTrackerReturnValue",
			Value:               created,
		},
	})
}

// addTrackers validates every operation before creating any tracker.
func (s *Server) addTrackers(ops []adwords.ConversionTrackerOperation) ([]adwords.UploadConversion, []apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []apiError
	seen := make(map[string]bool, len(ops))
	for i, op := range ops {
		path := fmt.Sprintf("operations[%d]", i)
		name := op.Operand.Name
		switch {
		case op.Operator != adwords.OperatorAdd:
			errs = append(errs, apiError{FieldPath: path + ".operator", Trigger: string(op.Operator), Reason: "OperatorError.OPERATOR_NOT_SUPPORTED"})
		case strings.TrimSpace(name) == "":
			errs = append(errs, apiError{FieldPath: path + ".operand.name", Reason: "RequiredError.REQUIRED"})
		case seen[name]:
			errs = append(errs, apiError{FieldPath: path + ".operand.name", Trigger: name, Reason: "ConversionTrackingError.DUPLICATE_NAME"})
		default:
			if _, exists := s.trackers[name]; exists {
				errs = append(errs, apiError{FieldPath: path + ".operand.name", Trigger: name, Reason: "ConversionTrackingError.DUPLICATE_NAME"})
			}
		}
		seen[name] = true
	}
	if len(errs) > 0 {
		return nil, errs
	}

	created := make([]adwords.UploadConversion, len(ops))
	for i, op := range ops {
		t := op.Operand
		t.XSIType = "UploadConversion"
		t.ID = s.nextID
		t.Status = adwords.StatusEnabled
		if t.Category == "" {
			t.Category = adwords.CategoryDefault
		}
		s.nextID++
		s.trackers[t.Name] = t
		created[i] = t
	}
	return created, nil
}

func (s *Server) handleOfflineConversionFeed(w http.ResponseWriter, r *http.Request) {
	const service = adwords.OfflineConversionFeedServiceName

	req, err := decodeMutate[offlineConversionFeedMutate](r)
	if err != nil {
		s.clientFault(w, service, err)
		return
	}

	accepted, errs := s.addFeeds(req.Operations)
	if len(errs) > 0 {
		s.apiFault(w, service, errs)
		return
	}

	s.mutates.WithLabelValues(service, "ok").Inc()
	writeEnvelope(w, http.StatusOK, offlineConversionFeedMutateResponse{
		XMLName: responseName(chi.URLParam(r, "version")),
		Rval: adwords.OfflineConversionFeedReturnValue{
			ListReturnValueType: "OfflineConversionFeedReturnValue",
			Value:               accepted,
		},
	})
}

// addFeeds validates every operation before accepting any conversion.
func (s *Server) addFeeds(ops []adwords.OfflineConversionFeedOperation) ([]adwords.OfflineConversionFeed, []apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var errs []apiError
	for i, op := range ops {
		path := fmt.Sprintf("operations[%d]", i)
		feed := op.Operand

		if op.Operator != adwords.OperatorAdd {
			errs = append(errs, apiError{FieldPath: path + ".operator", Trigger: string(op.Operator), Reason: "OperatorError.OPERATOR_NOT_SUPPORTED"})
			continue
		}
		if strings.TrimSpace(feed.GoogleClickID) == "" {
			errs = append(errs, apiError{FieldPath: path + ".operand.googleClickId", Reason: "OfflineConversionError.UNPARSEABLE_GCLID"})
			continue
		}
		if _, ok := s.trackers[feed.ConversionName]; !ok {
			errs = append(errs, apiError{FieldPath: path + ".operand.conversionName", Trigger: feed.ConversionName, Reason: "OfflineConversionError.INVALID_CONVERSION_TYPE"})
			continue
		}

		at, err := adwords.ParseConversionTime(feed.ConversionTime)
		if err != nil {
			errs = append(errs, apiError{FieldPath: path + ".operand.conversionTime", Trigger: feed.ConversionTime, Reason: "OfflineConversionError.UNPARSEABLE_DATE"})
			continue
		}
		if at.After(now) {
			errs = append(errs, apiError{FieldPath: path + ".operand.conversionTime", Trigger: feed.ConversionTime, Reason: "OfflineConversionError.FUTURE_CONVERSION_TIME"})
			continue
		}

		if clickedAt, ok := s.clicks[feed.GoogleClickID]; ok {
			if !at.After(clickedAt) {
				errs = append(errs, apiError{FieldPath: path + ".operand.conversionTime", Trigger: feed.ConversionTime, Reason: "OfflineConversionError.CONVERSION_PRECEDES_CLICK"})
				continue
			}
			if now.Sub(clickedAt) > clickMaxAge {
				errs = append(errs, apiError{FieldPath: path + ".operand.googleClickId", Trigger: feed.GoogleClickID, Reason: "OfflineConversionError.EXPIRED_CLICK"})
				continue
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	accepted := make([]adwords.OfflineConversionFeed, len(ops))
	for i, op := range ops {
		accepted[i] = op.Operand
		s.feeds = append(s.feeds, op.Operand)
	}
	return accepted, nil
}

func (s *Server) clientFault(w http.ResponseWriter, service string, err error) {
	s.mutates.WithLabelValues(service, "fault").Inc()
	s.log.Warn("bad request", slog.String("service", service), slog.String("err", err.Error()))
	writeFault(w, "soap:Client", apiError{FieldPath: "", Reason: "RequestError.INVALID_INPUT", Trigger: err.Error()})
}

func (s *Server) apiFault(w http.ResponseWriter, service string, errs []apiError) {
	s.mutates.WithLabelValues(service, "fault").Inc()
	reasons := make([]string, len(errs))
	for i, e := range errs {
		reasons[i] = e.Reason
	}
	s.log.Info("mutate rejected", slog.String("service", service), slog.String("reasons", strings.Join(reasons, ",")))
	writeFault(w, "soap:Server", errs...)
}

type HealthResponse struct {
	Status        string `json:"status"`
	Trackers      int    `json:"trackers"`
	Conversions   int    `json:"conversions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	response := HealthResponse{
		Status:        "ok",
		Trackers:      len(s.trackers),
		Conversions:   len(s.feeds),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
