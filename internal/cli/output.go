package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// ErrorMessage picks the text shown for err: a UserError's own message,
// otherwise a prefix naming the error kind.
func ErrorMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	switch common.ErrorKind(err) {
	case common.KindNotFound:
		return "Not found: " + err.Error()
	case common.KindAlreadyResolved:
		return "Already decided: " + err.Error()
	case common.KindValidation:
		return "Invalid input: " + err.Error()
	case common.KindConfig:
		return "Configuration problem: " + err.Error()
	case common.KindExternalService:
		return "Remote service failed: " + err.Error()
	}
	return err.Error()
}

// PrintError writes a styled error line.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, FormatError(ErrorMessage(err)))
}

// PrintSuccess writes a styled success line.
func PrintSuccess(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, FormatSuccess(fmt.Sprintf(format, args...)))
}

// PrintWarning writes a styled warning line.
func PrintWarning(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, FormatWarning(fmt.Sprintf(format, args...)))
}

// PrintInfo writes a styled info line.
func PrintInfo(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, FormatInfo(fmt.Sprintf(format, args...)))
}
