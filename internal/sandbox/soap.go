package sandbox

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const soapEnvNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

// maxRequestBytes bounds a single SOAP request.
const maxRequestBytes = 1 << 20

// requestEnvelope matches the envelope by local name so any prefix works.
type requestEnvelope[T any] struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Mutate *T `xml:"mutate"`
	} `xml:"Body"`
}

// Responses spell out the soap prefix: clients look for "<soap" before decoding.
type responseEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	NS      string   `xml:"xmlns:soap,attr"`
	Body    responseBody
}

type responseBody struct {
	XMLName xml.Name `xml:"soap:Body"`
	Content interface{}
}

type fault struct {
	XMLName xml.Name `xml:"soap:Fault"`
	Code    string   `xml:"faultcode"`
	String  string   `xml:"faultstring"`
	Detail  string   `xml:"detail,omitempty"`
}

// apiError mirrors one entry of an ApiException: the reason plus where it applies.
type apiError struct {
	FieldPath string
	Trigger   string
	Reason    string // e.g. ConversionTrackingError.DUPLICATE_NAME
}

func (e apiError) Error() string {
	if e.Trigger != "" {
		return fmt.Sprintf("[%s @ %s; trigger:'%s']", e.Reason, e.FieldPath, e.Trigger)
	}
	return fmt.Sprintf("[%s @ %s]", e.Reason, e.FieldPath)
}

func decodeMutate[T any](r *http.Request) (*T, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	var env requestEnvelope[T]
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Body.Mutate == nil {
		return nil, fmt.Errorf("envelope has no mutate element")
	}
	return env.Body.Mutate, nil
}

func writeEnvelope(w http.ResponseWriter, status int, content interface{}) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, xml.Header)
	xml.NewEncoder(w).Encode(responseEnvelope{NS: soapEnvNamespace, Body: responseBody{Content: content}})
}

func writeFault(w http.ResponseWriter, code string, errs ...apiError) {
	msgs := make([]string, len(errs))
	reasons := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
		reasons[i] = e.Reason
	}
	writeEnvelope(w, http.StatusInternalServerError, fault{
		Code:   code,
		String: strings.Join(msgs, ", "),
		Detail: strings.Join(reasons, ","),
	})
}
