package adwords

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Namespace is the cm namespace shared by both conversion services.
const Namespace = "https://adwords.google.com/api/adwords/cm/"

// DefaultVersion is the API version the services are addressed with when none is configured.
const DefaultVersion = "v201402"

// ConversionTimeLayout is the "yyyymmdd hhmmss" layout expected by OfflineConversionFeedService.
const ConversionTimeLayout = "20060102 150405"

type Operator string

// OperatorAdd is the only operator either service accepts for these types.
const OperatorAdd Operator = "ADD"

type ConversionTrackerCategory string

const (
	CategoryDefault  ConversionTrackerCategory = "DEFAULT"
	CategoryPageView ConversionTrackerCategory = "PAGE_VIEW"
)

type ConversionTrackerStatus string

const StatusEnabled ConversionTrackerStatus = "ENABLED"

// UploadConversion is a conversion tracker whose conversions are imported
// rather than observed. It shows up with "Source = Import" once created.
type UploadConversion struct {
	XSIType                   string                    `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr,omitempty"`
	ID                        int64                     `xml:"id,omitempty"`
	Name                      string                    `xml:"name"`
	Status                    ConversionTrackerStatus   `xml:"status,omitempty"`
	Category                  ConversionTrackerCategory `xml:"category"`
	ViewthroughLookbackWindow int                       `xml:"viewthroughLookbackWindow"`
	CtcLookbackWindow         int                       `xml:"ctcLookbackWindow"`
}

// NewUploadConversion returns an operand ready to be sent in an ADD operation.
func NewUploadConversion(name string, category ConversionTrackerCategory, viewthrough, ctc int) UploadConversion {
	return UploadConversion{
		XSIType:                   "UploadConversion",
		Name:                      name,
		Category:                  category,
		ViewthroughLookbackWindow: viewthrough,
		CtcLookbackWindow:         ctc,
	}
}

type ConversionTrackerOperation struct {
	Operator Operator         `xml:"operator"`
	Operand  UploadConversion `xml:"operand"`
}

type ConversionTrackerReturnValue struct {
	ListReturnValueType string             `xml:"ListReturnValue.Type,omitempty"`
	Value               []UploadConversion `xml:"value"`
}

// OfflineConversionFeed attributes a conversion to a prior click.
type OfflineConversionFeed struct {
	ConversionName  string  `xml:"conversionName"`
	ConversionTime  string  `xml:"conversionTime"`
	ConversionValue float64 `xml:"conversionValue"`
	GoogleClickID   string  `xml:"googleClickId"`
}

type OfflineConversionFeedOperation struct {
	Operator Operator              `xml:"operator"`
	Operand  OfflineConversionFeed `xml:"operand"`
}

type OfflineConversionFeedReturnValue struct {
	ListReturnValueType string                  `xml:"ListReturnValue.Type,omitempty"`
	Value               []OfflineConversionFeed `xml:"value"`
}

// conversionTrackerMutate and friends are the document/literal bodies of the
// mutate call. The namespace is filled in per version at send time.
type conversionTrackerMutate struct {
	XMLName    xml.Name
	Operations []ConversionTrackerOperation `xml:"operations"`
}

type conversionTrackerMutateResponse struct {
	XMLName xml.Name                     `xml:"mutateResponse"`
	Rval    ConversionTrackerReturnValue `xml:"rval"`
}

type offlineConversionFeedMutate struct {
	XMLName    xml.Name
	Operations []OfflineConversionFeedOperation `xml:"operations"`
}

type offlineConversionFeedMutateResponse struct {
	XMLName xml.Name                         `xml:"mutateResponse"`
	Rval    OfflineConversionFeedReturnValue `xml:"rval"`
}

// MutateName returns the qualified name of the mutate element for version.
func MutateName(version string) xml.Name {
	return xml.Name{Space: Namespace + version, Local: "mutate"}
}

// FormatConversionTime renders t in the layout the feed service expects.
func FormatConversionTime(t time.Time) string {
	return t.Format(ConversionTimeLayout)
}

// ParseConversionTime parses "yyyymmdd hhmmss" with an optional trailing
// time zone id such as "America/New_York". Without a zone the time is UTC.
func ParseConversionTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Fields(s)
	switch len(parts) {
	case 2:
		t, err := time.Parse(ConversionTimeLayout, parts[0]+" "+parts[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid conversion time %q: %w", s, err)
		}
		return t, nil
	case 3:
		loc, err := time.LoadLocation(parts[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time zone %q: %w", parts[2], err)
		}
		t, err := time.ParseInLocation(ConversionTimeLayout, parts[0]+" "+parts[1], loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid conversion time %q: %w", s, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("invalid conversion time %q: want yyyymmdd hhmmss", s)
	}
}
