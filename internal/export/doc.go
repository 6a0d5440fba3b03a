// Package export writes saved definitions to CSV files for sharing
// outside the application.
package export
