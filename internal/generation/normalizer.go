package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"vidabot/internal/domain"
)

// Outcome is the normalized view of one poll response.
type Outcome struct {
	Done     bool
	AssetURI string
	MimeType string
	Err      error
}

// ShapeMatcher extracts an asset from one known response layout.
type ShapeMatcher struct {
	Name  string
	Match func(response json.RawMessage) (uri, mimeType string, ok bool)
}

type rawOperation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *rawStatus      `json:"error"`
	Response json.RawMessage `json:"response"`
}

type rawStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type rawVideo struct {
	URI      string `json:"uri"`
	GCSURI   string `json:"gcsUri"`
	MimeType string `json:"mimeType"`
}

func (v rawVideo) location() string {
	if v.URI != "" {
		return v.URI
	}
	return v.GCSURI
}

type rawFilter struct {
	FilteredCount   int      `json:"raiMediaFilteredCount"`
	FilteredReasons []string `json:"raiMediaFilteredReasons"`
}

// DefaultShapes lists the response layouts the video API has shipped, in
// priority order.
var DefaultShapes = []ShapeMatcher{
	{Name: "generatedVideos", Match: matchGeneratedVideos},
	{Name: "generateVideoResponse.generatedSamples", Match: matchGeneratedSamples},
	{Name: "videos", Match: matchVideos},
}

func matchGeneratedVideos(response json.RawMessage) (string, string, bool) {
	var body struct {
		GeneratedVideos []struct {
			Video rawVideo `json:"video"`
		} `json:"generatedVideos"`
	}
	if json.Unmarshal(response, &body) != nil {
		return "", "", false
	}
	for _, item := range body.GeneratedVideos {
		if uri := item.Video.location(); uri != "" {
			return uri, item.Video.MimeType, true
		}
	}
	return "", "", false
}

func matchGeneratedSamples(response json.RawMessage) (string, string, bool) {
	var body struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video rawVideo `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	}
	if json.Unmarshal(response, &body) != nil {
		return "", "", false
	}
	for _, item := range body.GenerateVideoResponse.GeneratedSamples {
		if uri := item.Video.location(); uri != "" {
			return uri, item.Video.MimeType, true
		}
	}
	return "", "", false
}

func matchVideos(response json.RawMessage) (string, string, bool) {
	var body struct {
		Videos []rawVideo `json:"videos"`
	}
	if json.Unmarshal(response, &body) != nil {
		return "", "", false
	}
	for _, item := range body.Videos {
		if uri := item.location(); uri != "" {
			return uri, item.MimeType, true
		}
	}
	return "", "", false
}

// Normalizer turns raw operation payloads into Outcomes.
type Normalizer struct {
	shapes []ShapeMatcher
}

// NewNormalizer builds a normalizer over shapes, or DefaultShapes when none
// are given.
func NewNormalizer(shapes ...ShapeMatcher) *Normalizer {
	if len(shapes) == 0 {
		shapes = DefaultShapes
	}
	return &Normalizer{shapes: shapes}
}

// Normalize is pure: the same payload always yields the same Outcome. The
// returned error is reserved for undecodable payloads and is Transient.
func (n *Normalizer) Normalize(raw []byte) (Outcome, error) {
	var op rawOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return Outcome{}, domain.NewError(domain.KindTransient, "undecodable operation status", err)
	}
	if op.Error != nil && (op.Error.Code != 0 || op.Error.Message != "") {
		return Outcome{Done: true, Err: domain.ClassifyRPC(op.Error.Code, op.Error.Message)}, nil
	}
	if !op.Done {
		return Outcome{}, nil
	}
	if len(op.Response) > 0 {
		for _, shape := range n.shapes {
			if uri, mime, ok := shape.Match(op.Response); ok {
				return Outcome{Done: true, AssetURI: uri, MimeType: mime}, nil
			}
		}
	}
	return Outcome{Done: true, Err: emptyResult(op.Response)}, nil
}

func emptyResult(response json.RawMessage) error {
	var body struct {
		rawFilter
		GenerateVideoResponse rawFilter `json:"generateVideoResponse"`
	}
	if len(response) > 0 {
		_ = json.Unmarshal(response, &body)
	}
	reasons := append(body.FilteredReasons, body.GenerateVideoResponse.FilteredReasons...)
	count := body.FilteredCount + body.GenerateVideoResponse.FilteredCount
	if count > 0 || len(reasons) > 0 {
		msg := fmt.Sprintf("%d result(s) removed by safety filters", count)
		if len(reasons) > 0 {
			msg += ": " + strings.Join(reasons, "; ")
		}
		return domain.NewError(domain.KindEmptyResult, msg, nil)
	}
	return domain.NewError(domain.KindEmptyResult, "operation finished without an asset", nil)
}
