package utils

import (
	"time"
)

// Date and timestamp layouts
const (
	// DateLayout is the query-string date format (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// LastSeenLayout is the transaction feed timestamp format without the fraction
	LastSeenLayout = "2006-01-02 15:04:05"
)

// CORS and request constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400

	// DefaultRequestTimeout bounds the context handed to business flows
	DefaultRequestTimeout = 30 * time.Second

	// UploadRequestTimeout bounds spreadsheet uploads and exports
	UploadRequestTimeout = 120 * time.Second
)

// XLSXContentType is the MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
