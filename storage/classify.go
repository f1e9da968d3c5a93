package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"promptly/domain"
)

var keyFormatMarkers = []string{
	"private key",
	"PEM",
	"pem:",
	"DECODER routines",
	"bad base64",
	"asn1:",
	"x509:",
	"ERR_OSSL_UNSUPPORTED",
}

// Classify maps a transport error from the Sheets client onto the load
// error taxonomy. Errors that already are LoadErrors are returned as is.
func Classify(err error, cfg SheetConfig) *domain.LoadError {
	if err == nil {
		return nil
	}
	var le *domain.LoadError
	if errors.As(err, &le) {
		return le
	}

	msg := err.Error()
	code := 0
	var details []string
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		code = apiErr.Code
		for i, item := range apiErr.Errors {
			details = append(details, fmt.Sprintf("API error detail %d: %s", i+1, item.Message))
		}
	}
	var grantErr *oauth2.RetrieveError
	invalidGrant := strings.Contains(msg, "invalid_grant") ||
		(errors.As(err, &grantErr) && grantErr.ErrorCode == "invalid_grant")

	out := &domain.LoadError{Err: err, Details: details}
	switch {
	case !invalidGrant && containsAny(msg, keyFormatMarkers):
		out.Kind = domain.KindAuthentication
		out.Title = "Authentication Error"
		out.Hint = fmt.Sprintf("Could not authenticate with Google. Check that %s holds the complete PEM key from the service account JSON file, including the BEGIN and END lines, with newlines written as literal \\n.", EnvPrivateKey)
	case code == http.StatusForbidden || containsAny(msg, []string{"PERMISSION_DENIED", "caller does not have permission"}):
		out.Kind = domain.KindPermissionDenied
		out.Title = "Permission Denied"
		out.Hint = fmt.Sprintf("The service account %q cannot read spreadsheet %q. Share the sheet with this account with at least Viewer access.", cfg.ClientEmail, cfg.SpreadsheetID)
	case code == http.StatusNotFound || strings.Contains(msg, "Requested entity was not found"):
		out.Kind = domain.KindNotFound
		out.Title = "Spreadsheet Not Found"
		out.Hint = fmt.Sprintf("Spreadsheet %q could not be found. Verify %s and that the spreadsheet still exists.", cfg.SpreadsheetID, EnvSpreadsheetID)
	case strings.Contains(msg, "Unable to parse range"):
		out.Kind = domain.KindNotFound
		out.Title = "Sheet Not Found"
		out.Hint = fmt.Sprintf("Sheet %q does not exist in spreadsheet %q. Verify %s.", cfg.SheetName, cfg.SpreadsheetID, EnvSheetName)
	case invalidGrant:
		out.Kind = domain.KindInvalidGrant
		out.Title = "Authentication Grant Error"
		out.Hint = fmt.Sprintf("Google rejected the token request. Check %s and %s, and make sure the server clock is in sync.", EnvPrivateKey, EnvClientEmail)
	case code == http.StatusUnauthorized || strings.Contains(msg, "UNAUTHENTICATED"):
		out.Kind = domain.KindAuthentication
		out.Title = "Authentication Error"
		out.Hint = fmt.Sprintf("Google did not accept the service account credentials. Check %s and %s.", EnvClientEmail, EnvPrivateKey)
	default:
		out.Kind = domain.KindUnknown
		out.Title = "Error Loading Prompts"
		out.Hint = "Could not load prompts due to an unexpected error. Check the server logs for details. Raw error: " + msg
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
