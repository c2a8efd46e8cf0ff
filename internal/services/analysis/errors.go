package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/ternarybob/greattrades/internal/services/imaging"
	"github.com/ternarybob/greattrades/internal/services/llm"
)

// Category is the user-facing failure class of an analysis
type Category string

const (
	CategoryEncoding           Category = "EncodingError"
	CategoryConfiguration      Category = "ConfigurationError"
	CategoryNotAChart          Category = "NotAChart"
	CategoryInvalidCredentials Category = "InvalidCredentials"
	CategoryBillingIssue       Category = "BillingIssue"
	CategoryRateLimited        Category = "RateLimited"
	CategoryMalformedResponse  Category = "MalformedResponse"
	CategoryServiceError       Category = "ServiceError"
	CategoryUnknown            Category = "UnknownError"
)

// ErrNotAChart is returned when the model reports the image is not a chart
var ErrNotAChart = errors.New("no chart found in the image")

// ErrNoJSONObject is returned when the model text holds no {...} span
var ErrNoJSONObject = errors.New("no JSON object found in model response")

var categoryMessages = map[Category]string{
	CategoryEncoding:           "The image could not be read.",
	CategoryConfiguration:      "The analysis service is not configured: an API key is required.",
	CategoryNotAChart:          "No chart found in the image. Please upload a clear image of a financial trading chart.",
	CategoryInvalidCredentials: "The configured API key is not valid.",
	CategoryBillingIssue:       "The analysis service account has a billing issue.",
	CategoryRateLimited:        "Too many requests. Please wait a moment and try again.",
	CategoryMalformedResponse:  "The analysis service returned a response that could not be read.",
	CategoryServiceError:       "The analysis service failed to process the chart.",
	CategoryUnknown:            "An unknown error occurred during analysis.",
}

// AnalysisError is a classified analysis failure. Detail keeps the original message.
type AnalysisError struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail,omitempty"`
	Err      error    `json:"-"`
}

// NewAnalysisError builds an error of the given category around err
func NewAnalysisError(category Category, err error) *AnalysisError {
	e := &AnalysisError{
		Category: category,
		Message:  categoryMessages[category],
		Err:      err,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func (e *AnalysisError) Error() string {
	if e.Detail == "" || e.Detail == e.Message {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsCategory reports whether err is an AnalysisError of the given category
func IsCategory(err error, category Category) bool {
	var analysisErr *AnalysisError
	return errors.As(err, &analysisErr) && analysisErr.Category == category
}

// Classify maps any failure raised while analyzing one chart to exactly one category.
//
// Known error types and structured provider status codes are checked first.
// Text matching on the lower-cased message is the fallback, since provider
// messages are not a stable contract.
func Classify(v interface{}) *AnalysisError {
	if v == nil {
		return nil
	}

	err, ok := v.(error)
	if !ok {
		return &AnalysisError{
			Category: CategoryUnknown,
			Message:  categoryMessages[CategoryUnknown],
			Detail:   fmt.Sprint(v),
		}
	}

	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr
	}

	if category, ok := classifyTyped(err); ok {
		return NewAnalysisError(category, err)
	}
	if category, ok := classifyStatus(err); ok {
		return NewAnalysisError(category, err)
	}
	return NewAnalysisError(classifyText(err.Error()), err)
}

func classifyTyped(err error) (Category, bool) {
	var encodingErr *imaging.EncodingError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &encodingErr):
		return CategoryEncoding, true
	case errors.Is(err, llm.ErrMissingAPIKey):
		return CategoryConfiguration, true
	case errors.Is(err, ErrNotAChart):
		return CategoryNotAChart, true
	case errors.Is(err, ErrNoJSONObject), errors.Is(err, llm.ErrEmptyResponse),
		errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return CategoryMalformedResponse, true
	}
	return "", false
}

// statusCode extracts the HTTP status from provider SDK errors
func statusCode(err error) int {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return geminiErrPtr.Code
	}
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr != nil {
		return claudeErr.StatusCode
	}
	return 0
}

func classifyStatus(err error) (Category, bool) {
	switch statusCode(err) {
	case http.StatusUnauthorized:
		return CategoryInvalidCredentials, true
	case http.StatusPaymentRequired:
		return CategoryBillingIssue, true
	case http.StatusTooManyRequests:
		return CategoryRateLimited, true
	}
	return "", false
}

var invalidKeyMarkers = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
	"invalid x-api-key",
}

func classifyText(message string) Category {
	lower := strings.ToLower(message)

	for _, marker := range invalidKeyMarkers {
		if strings.Contains(lower, marker) {
			return CategoryInvalidCredentials
		}
	}
	switch {
	case strings.Contains(lower, "billing"):
		return CategoryBillingIssue
	case strings.Contains(lower, "429"):
		return CategoryRateLimited
	case strings.Contains(lower, "json"):
		return CategoryMalformedResponse
	}
	return CategoryServiceError
}
