package services

import (
	"net/url"
	"strings"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
)

// AnalysisInput is content ready for classification.
// The set of variants is closed: TextInput, URLInput and ImageInput.
type AnalysisInput interface {
	Kind() models.InputType
	Content() string
	analysisInput()
}

// TextInput is free text to classify
type TextInput struct {
	Text string
}

// URLInput is an absolute http(s) URL to classify
type URLInput struct {
	URL string
}

// ImageInput is a stored image referenced by its storage key
type ImageInput struct {
	Key string
}

func (TextInput) Kind() models.InputType  { return models.InputTypeText }
func (URLInput) Kind() models.InputType   { return models.InputTypeURL }
func (ImageInput) Kind() models.InputType { return models.InputTypeImage }

func (in TextInput) Content() string  { return in.Text }
func (in URLInput) Content() string   { return in.URL }
func (in ImageInput) Content() string { return in.Key }

func (TextInput) analysisInput()  {}
func (URLInput) analysisInput()   {}
func (ImageInput) analysisInput() {}

// ParseAnalysisInput builds the input variant for kind.
// Unknown kinds fail with apperrors.ErrInvalidAnalysisType, empty content with apperrors.ErrValidation.
func ParseAnalysisInput(kind, content string) (AnalysisInput, error) {
	content = strings.TrimSpace(content)

	switch models.InputType(strings.ToLower(strings.TrimSpace(kind))) {
	case models.InputTypeText:
		if content == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "Please provide text to analyze")
		}
		return TextInput{Text: content}, nil
	case models.InputTypeURL:
		if content == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "Please provide a URL to analyze")
		}
		if !isHTTPURL(content) {
			return nil, apperrors.New(apperrors.ErrValidation, "Please provide a valid URL")
		}
		return URLInput{URL: content}, nil
	case models.InputTypeImage:
		if content == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "Please upload an image")
		}
		return ImageInput{Key: content}, nil
	default:
		return nil, apperrors.New(apperrors.ErrInvalidAnalysisType, "Invalid analysis type")
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
