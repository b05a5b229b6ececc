package errors

import (
	stderrors "errors"
	"strings"

	"go.uber.org/multierr"

	"github.com/helium-dev/helium/internal/manifest"
	"github.com/helium-dev/helium/pkg/client"
	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/router"
)

// FromError converts err into a HeliumError with the code that best
// describes it. Combined errors (such as those from router.BuildTable) take
// the code of their first error and list every error in Detail.
func FromError(err error) *HeliumError {
	if err == nil {
		return nil
	}
	var he *HeliumError
	if stderrors.As(err, &he) {
		return he
	}

	errs := multierr.Errors(err)
	if len(errs) > 1 {
		first := *FromError(errs[0])
		out := &first
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = "- " + e.Error()
		}
		out.Detail = strings.Join(lines, "\n")
		out.Wrapped = err
		return out
	}

	code := codeFor(err)
	if code == "" {
		return Newf(CategoryCLI, "%s", err.Error())
	}
	return New(code).Wrap(err)
}

// Wrap is like FromError but uses code when err has no better match.
func Wrap(err error, code string) *HeliumError {
	if err == nil {
		return nil
	}
	var he *HeliumError
	if stderrors.As(err, &he) {
		return he
	}
	if c := codeFor(err); c != "" {
		code = c
	}
	return New(code).Wrap(err)
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, procedure.ErrDuplicateProcedure):
		return "H001"
	case stderrors.Is(err, procedure.ErrInvalidName):
		return "H002"
	case stderrors.Is(err, procedure.ErrRegistrySealed):
		return "H003"
	case stderrors.Is(err, procedure.ErrNilHandler):
		return "H004"
	case stderrors.Is(err, router.ErrInvalidRoutePattern):
		return "H010"
	case stderrors.Is(err, router.ErrDuplicateRoute):
		return "H011"
	case stderrors.Is(err, router.ErrRouteNotFound):
		return "H012"
	case stderrors.Is(err, manifest.ErrNotFound):
		return "H030"
	case stderrors.Is(err, manifest.ErrInvalidManifest):
		return "H031"
	}

	switch client.KindOf(err) {
	case "":
		return ""
	case client.KindTimeout:
		return "H052"
	case client.KindNetwork:
		return "H051"
	default:
		return "H050"
	}
}
