package models

import (
	"encoding/base64"
	"fmt"
)

// EncodedImage is an image ready to embed in a model request.
// Base64Data never carries a data URL prefix.
type EncodedImage struct {
	Base64Data string `json:"base64Data"`
	MIMEType   string `json:"mimeType"`
}

// Bytes decodes the base64 payload
func (i EncodedImage) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(i.Base64Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, nil
}

// DataURL renders the image as a data URL
func (i EncodedImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64Data
}

// AnalysisRequestContext is everything one analysis call needs. It is built by
// the caller and never modified by the analysis pipeline.
type AnalysisRequestContext struct {
	Image     EncodedImage
	Settings  UserSettings
	TimeFrame string // Chart time frame for this call; empty falls back to Settings.DefaultTimeFrame
}

// EffectiveTimeFrame returns the time frame to describe to the model
func (c AnalysisRequestContext) EffectiveTimeFrame() string {
	if c.TimeFrame != "" {
		return c.TimeFrame
	}
	return c.Settings.DefaultTimeFrame
}
